package sandbox

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xilef-bot/evalbot/internal/evalerr"
)

func TestAwaitTimers(t *testing.T) {
	res, err := run(t, `
		const timers = require('timers');
		const order = [];
		new Promise((resolve) => {
			timers.setTimeout(() => order.push('b'), 20);
			timers.setImmediate(() => order.push('a'));
			const id = timers.setTimeout(() => order.push('never'), 5);
			timers.clearTimeout(id);
			timers.setTimeout(() => resolve(order), 40);
		})
	`, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "[ 'a', 'b' ]", res.Text)
}

func TestAwaitInterval(t *testing.T) {
	res, err := run(t, `
		const timers = require('timers');
		new Promise((resolve) => {
			let n = 0;
			const id = timers.setInterval(() => {
				if (++n === 3) {
					timers.clearInterval(id);
					resolve(n);
				}
			}, 1);
		})
	`, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "3", res.Text)
}

func TestAwaitPendingWithoutTimers(t *testing.T) {
	res, err := run(t, "new Promise(() => {})", DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "Promise { <pending> }", res.Text)
}

func TestAwaitLimit(t *testing.T) {
	opts := DefaultOptions()
	opts.AwaitLimit = 50 * time.Millisecond

	_, err := run(t, "new Promise(() => require('timers').setInterval(() => {}, 5))", opts)
	var timeout *evalerr.TimeoutError
	require.ErrorAs(t, err, &timeout)
	assert.True(t, timeout.Awaiting)
}

func TestTimerCallbackTimeout(t *testing.T) {
	opts := DefaultOptions()
	opts.Timeout = 50 * time.Millisecond

	_, err := run(t, "new Promise(() => require('timers').setTimeout(() => { while (true) {} }, 1))", opts)
	assert.ErrorIs(t, err, evalerr.ErrTimeout)
}

func TestTimersNotAwaitedAreDropped(t *testing.T) {
	res, err := run(t, "require('timers').setTimeout(() => console.log('late'), 1); 'now'", DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "'now'", res.Text)
	assert.Empty(t, res.Stdout)
}

func TestSetTimeoutRequiresFunction(t *testing.T) {
	_, err := run(t, "require('timers').setTimeout('code', 1)", DefaultOptions())
	var rte *evalerr.SandboxRuntimeError
	require.ErrorAs(t, err, &rte)
	assert.Contains(t, rte.Message, "TypeError")
}
