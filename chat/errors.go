package chat

import (
	"errors"
	"fmt"
	"strings"
)

// SendClass tells operators why a reply could not be delivered.
type SendClass int

const (
	// SendClassTransport covers every failure that is not a permission problem.
	SendClassTransport SendClass = iota
	// SendClassPermissionDenied means the platform refused the reply for this channel.
	SendClassPermissionDenied
)

// String returns the metric/log label for the class.
func (c SendClass) String() string {
	switch c {
	case SendClassPermissionDenied:
		return "permission_denied"
	default:
		return "transport_error"
	}
}

var (
	// ErrPermissionDenied is matched by errors.Is for replies refused by the platform.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrTransport is matched by errors.Is for any other send failure.
	ErrTransport = errors.New("transport error")
	// ErrNotConnected is returned by senders with no live connection.
	ErrNotConnected = errors.New("chat client not connected")
)

// SendError wraps a failed reply with its class and channel.
type SendError struct {
	Class   SendClass
	Channel string
	Err     error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("send to %s: %s: %v", e.Channel, e.Class, e.Err)
}

// Unwrap exposes both the class sentinel and the underlying error.
func (e *SendError) Unwrap() []error {
	if e.Class == SendClassPermissionDenied {
		return []error{ErrPermissionDenied, e.Err}
	}
	return []error{ErrTransport, e.Err}
}

// ClassifySendError maps a sender error to a *SendError. Nil stays nil.
func ClassifySendError(channel string, err error) *SendError {
	if err == nil {
		return nil
	}
	var se *SendError
	if errors.As(err, &se) {
		return se
	}
	class := SendClassTransport
	if errors.Is(err, ErrPermissionDenied) {
		class = SendClassPermissionDenied
	} else {
		lower := strings.ToLower(err.Error())
		for _, p := range []string{"forbidden", "missing permissions"} {
			if strings.Contains(lower, p) {
				class = SendClassPermissionDenied
				break
			}
		}
	}
	return &SendError{Class: class, Channel: channel, Err: err}
}

// permissionNotices are Twitch NOTICE msg-ids sent when a PRIVMSG is refused
// because of the bot's standing in the channel.
var permissionNotices = map[string]struct{}{
	"msg_banned":                         {},
	"msg_channel_blocked":                {},
	"msg_channel_suspended":              {},
	"msg_emoteonly":                      {},
	"msg_followersonly":                  {},
	"msg_followersonly_followed":         {},
	"msg_followersonly_zero":             {},
	"msg_requires_verified_phone_number": {},
	"msg_subsonly":                       {},
	"msg_suspended":                      {},
	"msg_timedout":                       {},
	"msg_verified_email":                 {},
	"no_permission":                      {},
}

// ClassifyNotice maps a Twitch NOTICE msg-id to a send failure class. The bool is
// false for informational notices that do not describe a failed message.
func ClassifyNotice(msgID string) (SendClass, bool) {
	id := strings.ToLower(strings.TrimSpace(msgID))
	if _, ok := permissionNotices[id]; ok {
		return SendClassPermissionDenied, true
	}
	if strings.HasPrefix(id, "msg_") {
		return SendClassTransport, true
	}
	return SendClassTransport, false
}
