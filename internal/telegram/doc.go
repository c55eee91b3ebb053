// Package telegram provides the Telegram Bot API calls the agent performs:
// pinChatMessage, unpinChatMessage, sendPoll and stopPoll.
//
// Requests are JSON POSTs to https://api.telegram.org/bot<token>/<method>. The
// client does not judge the HTTP status: the Bot API answers errors with a JSON
// body ({"ok": false, "description": ...}) and callers decide what to do with it.
// Only transport failures are returned as errors by the call methods.
//
// Authentication requires a bot token (from @BotFather).
package telegram
