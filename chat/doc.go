// Package chat contains the "X? Hardly know her!" bot core and its Twitch adapter.
//
// The pieces, from the inside out:
//   - Scanner walks a message's tokens, asks the words classifier whether each
//     one is joke-worthy and asks the cooldown tracker whether it may fire in
//     the message's channel. It returns at most one joke per message.
//   - Bot drops messages from bots, routes the test_er and bot_stats commands,
//     sends the joke through a Sender, records it in the optional joke log and
//     classifies send failures (permission denied vs transport).
//   - TwitchClient wraps go-twitch-irc: it joins the configured channels, turns
//     PRIVMSG into Message and NOTICE into Notice, and sends threaded replies.
//
// Twitch does not acknowledge PRIVMSG, so refused replies show up later as
// NOTICE messages and are classified by Bot.HandleNotice.
package chat
