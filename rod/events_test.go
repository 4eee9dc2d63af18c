package rod

import (
	"errors"
	"testing"

	"github.com/fwojciec/pagecheck"
	"github.com/go-rod/rod/lib/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ysmood/gson"
)

const testFrame = proto.PageFrameID("frame-1")

func newTestTranslator(describe func(*proto.RuntimeRemoteObject) (string, error)) (*translator, *[]pagecheck.Event) {
	var events []pagecheck.Event
	t := newTranslator(testFrame, func(e pagecheck.Event) {
		events = append(events, e)
	}, describe)
	return t, &events
}

func TestTranslator_NavigationResponse(t *testing.T) {
	t.Parallel()

	tr, events := newTestTranslator(nil)
	tr.requestWillBeSent(&proto.NetworkRequestWillBeSent{
		RequestID: "loader-1",
		LoaderID:  "loader-1",
		Type:      proto.NetworkResourceTypeDocument,
		FrameID:   testFrame,
		Request:   &proto.NetworkRequest{URL: "https://docs.example.com/", Method: "GET"},
	})
	tr.responseReceived(&proto.NetworkResponseReceived{
		RequestID: "loader-1",
		LoaderID:  "loader-1",
		Type:      proto.NetworkResourceTypeDocument,
		FrameID:   testFrame,
		Response:  &proto.NetworkResponse{URL: "https://docs.example.com/", Status: 404},
	})

	require.Len(t, *events, 1)
	assert.Equal(t, pagecheck.ResponseEvent{URL: "https://docs.example.com/", Status: 404, Navigation: true}, (*events)[0])
}

func TestTranslator_SubresourceAndIframeAreNotNavigation(t *testing.T) {
	t.Parallel()

	tr, events := newTestTranslator(nil)
	tr.responseReceived(&proto.NetworkResponseReceived{
		RequestID: "req-7",
		LoaderID:  "loader-1",
		Type:      proto.NetworkResourceTypeImage,
		FrameID:   testFrame,
		Response:  &proto.NetworkResponse{URL: "https://docs.example.com/logo.png", Status: 404},
	})
	tr.responseReceived(&proto.NetworkResponseReceived{
		RequestID: "loader-2",
		LoaderID:  "loader-2",
		Type:      proto.NetworkResourceTypeDocument,
		FrameID:   "iframe",
		Response:  &proto.NetworkResponse{URL: "https://embed.example.com/", Status: 500},
	})

	require.Len(t, *events, 2)
	for _, e := range *events {
		assert.False(t, e.(pagecheck.ResponseEvent).Navigation)
	}
}

func TestTranslator_LoadingFailed(t *testing.T) {
	t.Parallel()

	tr, events := newTestTranslator(nil)
	tr.requestWillBeSent(&proto.NetworkRequestWillBeSent{
		RequestID: "req-1",
		LoaderID:  "loader-1",
		Type:      proto.NetworkResourceTypeXHR,
		FrameID:   testFrame,
		Request:   &proto.NetworkRequest{URL: "https://docs.example.com/api", Method: "POST"},
	})
	tr.responseReceived(&proto.NetworkResponseReceived{
		RequestID: "req-1",
		Response:  &proto.NetworkResponse{URL: "https://docs.example.com/api", Status: 200},
	})
	tr.loadingFailed(&proto.NetworkLoadingFailed{RequestID: "req-1", ErrorText: "net::ERR_FAILED"})

	require.Len(t, *events, 2)
	assert.Equal(t, pagecheck.RequestFailedEvent{
		URL:       "https://docs.example.com/api",
		Method:    "POST",
		ErrorText: "net::ERR_FAILED",
		Status:    200,
	}, (*events)[1])
}

func TestTranslator_BlockedRequestsAreAborted(t *testing.T) {
	t.Parallel()

	tr, events := newTestTranslator(nil)
	tr.requestWillBeSent(&proto.NetworkRequestWillBeSent{
		RequestID: "req-2",
		Request:   &proto.NetworkRequest{URL: "https://www.googletagmanager.com/gtm.js", Method: "GET"},
	})
	tr.loadingFailed(&proto.NetworkLoadingFailed{RequestID: "req-2", ErrorText: "net::ERR_BLOCKED_BY_CLIENT"})

	require.Len(t, *events, 1)
	assert.True(t, (*events)[0].(pagecheck.RequestFailedEvent).Aborted)
}

func TestTranslator_ForgetsFinishedRequests(t *testing.T) {
	t.Parallel()

	tr, events := newTestTranslator(nil)
	tr.requestWillBeSent(&proto.NetworkRequestWillBeSent{
		RequestID: "req-3",
		Request:   &proto.NetworkRequest{URL: "https://docs.example.com/app.js", Method: "GET"},
	})
	tr.loadingFinished(&proto.NetworkLoadingFinished{RequestID: "req-3"})
	tr.loadingFailed(&proto.NetworkLoadingFailed{RequestID: "req-3", ErrorText: "net::ERR_ABORTED"})

	assert.Empty(t, *events)
	assert.Empty(t, tr.requests)
}

func TestTranslator_Exception(t *testing.T) {
	t.Parallel()

	tr, events := newTestTranslator(nil)
	tr.exceptionThrown(&proto.RuntimeExceptionThrown{ExceptionDetails: &proto.RuntimeExceptionDetails{
		Text:      "Uncaught",
		Exception: &proto.RuntimeRemoteObject{Description: "TypeError: x is undefined\n    at app.js:1:1"},
	}})
	tr.exceptionThrown(&proto.RuntimeExceptionThrown{ExceptionDetails: &proto.RuntimeExceptionDetails{
		Text: "Uncaught SyntaxError",
	}})

	assert.Equal(t, []pagecheck.Event{
		pagecheck.ExceptionEvent{Message: "TypeError: x is undefined\n    at app.js:1:1"},
		pagecheck.ExceptionEvent{Message: "Uncaught SyntaxError"},
	}, *events)
}

func TestTranslator_ConsoleArguments(t *testing.T) {
	t.Parallel()

	var described int
	tr, events := newTestTranslator(func(obj *proto.RuntimeRemoteObject) (string, error) {
		described++
		if obj.ObjectID == "broken" {
			return "", errors.New("object gone")
		}
		return `{"a":1}`, nil
	})

	args := []*proto.RuntimeRemoteObject{
		{Type: proto.RuntimeRemoteObjectTypeString, Value: gson.New("failed:")},
		{Type: proto.RuntimeRemoteObjectTypeObject, Subtype: proto.RuntimeRemoteObjectSubtypeError, Description: "Error: boom", ObjectID: "err"},
		{Type: proto.RuntimeRemoteObjectTypeObject, ObjectID: "obj", Description: "Object"},
		{Type: proto.RuntimeRemoteObjectTypeObject, ObjectID: "broken", Description: "Map(1)"},
		{Type: proto.RuntimeRemoteObjectTypeNumber, Value: gson.New(42), Description: "42"},
	}
	tr.consoleAPICalled(&proto.RuntimeConsoleAPICalled{Type: proto.RuntimeConsoleAPICalledTypeError, Args: args})
	tr.consoleAPICalled(&proto.RuntimeConsoleAPICalled{Type: proto.RuntimeConsoleAPICalledTypeLog, Args: args[2:3]})

	require.Len(t, *events, 2)
	assert.Equal(t, pagecheck.ConsoleEvent{
		Level: "error",
		Args:  []string{"failed:", "Error: boom", `{"a":1}`, "Map(1)", "42"},
	}, (*events)[0])
	assert.Equal(t, pagecheck.ConsoleEvent{Level: "log", Args: []string{"Object"}}, (*events)[1])
	assert.Equal(t, 2, described, "only error messages resolve objects")
}

func TestTranslator_CrashAndDialog(t *testing.T) {
	t.Parallel()

	tr, events := newTestTranslator(nil)
	tr.crashed(&proto.InspectorTargetCrashed{})
	tr.dialogOpening(&proto.PageJavascriptDialogOpening{Type: proto.PageDialogTypeAlert, Message: "Hello"})

	assert.Equal(t, []pagecheck.Event{
		pagecheck.CrashEvent{Message: "Page crashed"},
		pagecheck.DialogEvent{Type: "alert", Message: "Hello"},
	}, *events)
}
