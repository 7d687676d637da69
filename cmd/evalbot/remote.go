package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"

	"github.com/xilef-bot/evalbot/internal/dispatch"
)

// remoteReport mirrors the JSON report of the HTTP API.
type remoteReport struct {
	ID    string `json:"id"`
	State string `json:"state"`
	Pages []struct {
		Title string `json:"title"`
		Body  string `json:"body"`
	} `json:"pages"`
	Failure *dispatch.Failure `json:"error"`
	Sent    []string          `json:"sent"`
}

// remoteClient runs scripts against a running server.
type remoteClient struct {
	resty *resty.Client
}

func newRemoteClient(baseURL string, timeout time.Duration) *remoteClient {
	c := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetHeader("User-Agent", "evalbot-cli/"+version)
	c.AddRetryCondition(func(r *resty.Response, err error) bool {
		return err != nil || r.StatusCode() == 503
	})
	return &remoteClient{resty: c}
}

func (c *remoteClient) report(ctx context.Context, w io.Writer, s script) (bool, error) {
	path := "/v1/debug/script"
	req := c.resty.R().SetContext(ctx).SetHeader("X-Author", "cli")
	if runMessage {
		path = "/v1/debug"
		req.SetHeader("Content-Type", "application/json").
			SetBody(map[string]string{"author": "cli", "content": s.source})
	} else {
		req.SetHeader("Content-Type", "text/plain").SetBody(s.source)
	}

	resp, err := req.Post(path)
	if err != nil {
		return false, fmt.Errorf("calling %s: %w", path, err)
	}

	var report remoteReport
	if err := sonic.Unmarshal(resp.Body(), &report); err != nil || report.State == "" {
		return false, fmt.Errorf("%s: unexpected response %d: %s", path, resp.StatusCode(), strings.TrimSpace(resp.String()))
	}

	if report.Failure != nil {
		printPage(w, dispatch.FailureTitle, dispatch.FencedFailure(report.Failure))
	}
	for _, p := range report.Pages {
		printPage(w, p.Title, p.Body)
	}
	printSent(w, report.Sent)
	return report.State == string(dispatch.StateReportedSuccess), nil
}
