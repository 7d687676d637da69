// Package telegram delivers debug invocations over a Telegram bot.
//
// Operators send "/debug" followed by a js code block. Each report page is
// sent back as its own HTML message; a failure is sent as a single message.
// Text relayed by message.channel.send follows the report.
package telegram
