package dispatch

import (
	"sort"
	"sync"

	"github.com/xilef-bot/evalbot/internal/directive"
	"github.com/xilef-bot/evalbot/internal/sandbox"
)

// outbox collects text the script sends back through message.channel.send.
type outbox struct {
	mu   sync.Mutex
	sent []string
}

func (o *outbox) send(text string) {
	o.mu.Lock()
	o.sent = append(o.sent, text)
	o.mu.Unlock()
}

func (o *outbox) drain() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.sent...)
}

// globals builds the DEBUG and message bindings of one invocation.
func globals(cfg *directive.Config, opts sandbox.Options, msg Message, out *outbox) sandbox.Globals {
	features := make(map[string]bool, len(cfg.Features))
	for name, on := range cfg.Features {
		features[name] = on
	}
	vmConfig := make(map[string][]string, len(cfg.VM))
	for key, args := range cfg.VM {
		vmConfig[key] = append([]string(nil), args...)
	}
	custom := make([]string, 0, len(opts.Catalog))
	for name := range opts.Catalog {
		custom = append(custom, name)
	}
	sort.Strings(custom)

	return sandbox.Globals{
		"DEBUG": map[string]any{
			"AVAILABLE_MODULES": append([]string(nil), opts.AllowedModules...),
			"OPTIONAL_FEATURES": features,
			"VM_CONFIG":         vmConfig,
			"CUSTOM_MODULES":    custom,
		},
		"message": map[string]any{
			"id":        msg.ID,
			"author":    msg.Author,
			"channelId": msg.ChannelID,
			"content":   msg.Content,
			"channel": map[string]any{
				"id":   msg.ChannelID,
				"send": out.send,
			},
		},
	}
}
