package rod

import (
	"github.com/fwojciec/pagecheck"
	"github.com/go-rod/rod/lib/proto"
)

// blockedByClient is the error text of requests aborted by interception.
const blockedByClient = "net::ERR_BLOCKED_BY_CLIENT"

// request is what a translator remembers about an in-flight request.
type request struct {
	url        string
	method     string
	navigation bool
	status     int
}

// translator turns the DevTools events of one tab into pagecheck events.
// Its methods must be called from a single goroutine.
type translator struct {
	frameID proto.PageFrameID
	emit    pagecheck.EventHandler

	// describe renders a remote object that has no primitive value.
	describe func(obj *proto.RuntimeRemoteObject) (string, error)

	requests map[proto.NetworkRequestID]*request
}

func newTranslator(frameID proto.PageFrameID, emit pagecheck.EventHandler, describe func(*proto.RuntimeRemoteObject) (string, error)) *translator {
	return &translator{
		frameID:  frameID,
		emit:     emit,
		describe: describe,
		requests: make(map[proto.NetworkRequestID]*request),
	}
}

func (t *translator) crashed(*proto.InspectorTargetCrashed) {
	t.emit(pagecheck.CrashEvent{Message: "Page crashed"})
}

func (t *translator) exceptionThrown(e *proto.RuntimeExceptionThrown) {
	d := e.ExceptionDetails
	if d == nil {
		return
	}
	message := d.Text
	if d.Exception != nil && d.Exception.Description != "" {
		message = d.Exception.Description
	}
	t.emit(pagecheck.ExceptionEvent{Message: message})
}

func (t *translator) requestWillBeSent(e *proto.NetworkRequestWillBeSent) {
	if e.Request == nil {
		return
	}
	t.requests[e.RequestID] = &request{
		url:        e.Request.URL,
		method:     e.Request.Method,
		navigation: t.isNavigation(e.RequestID, e.LoaderID, e.Type, e.FrameID),
	}
}

func (t *translator) responseReceived(e *proto.NetworkResponseReceived) {
	if e.Response == nil {
		return
	}
	navigation := t.isNavigation(e.RequestID, e.LoaderID, e.Type, e.FrameID)
	if req, ok := t.requests[e.RequestID]; ok {
		req.status = e.Response.Status
		navigation = navigation || req.navigation
	}
	t.emit(pagecheck.ResponseEvent{
		URL:        e.Response.URL,
		Status:     e.Response.Status,
		Navigation: navigation,
	})
}

func (t *translator) loadingFinished(e *proto.NetworkLoadingFinished) {
	delete(t.requests, e.RequestID)
}

func (t *translator) loadingFailed(e *proto.NetworkLoadingFailed) {
	req, ok := t.requests[e.RequestID]
	if !ok {
		return
	}
	delete(t.requests, e.RequestID)
	t.emit(pagecheck.RequestFailedEvent{
		URL:        req.url,
		Method:     req.method,
		ErrorText:  e.ErrorText,
		Navigation: req.navigation,
		Aborted:    e.ErrorText == blockedByClient,
		Status:     req.status,
	})
}

func (t *translator) consoleAPICalled(e *proto.RuntimeConsoleAPICalled) {
	level := string(e.Type)
	args := make([]string, 0, len(e.Args))
	for _, arg := range e.Args {
		// Only error messages are reported, so other levels skip the
		// round trips needed to render objects.
		args = append(args, t.argText(arg, e.Type == proto.RuntimeConsoleAPICalledTypeError))
	}
	t.emit(pagecheck.ConsoleEvent{Level: level, Args: args})
}

func (t *translator) dialogOpening(e *proto.PageJavascriptDialogOpening) {
	t.emit(pagecheck.DialogEvent{Type: string(e.Type), Message: e.Message})
}

// isNavigation reports whether a request is the top-level document request
// of the tab. Chrome reuses the loader ID as the request ID for it.
func (t *translator) isNavigation(id proto.NetworkRequestID, loader proto.NetworkLoaderID, typ proto.NetworkResourceType, frame proto.PageFrameID) bool {
	return string(id) == string(loader) &&
		typ == proto.NetworkResourceTypeDocument &&
		frame == t.frameID
}

func (t *translator) argText(arg *proto.RuntimeRemoteObject, resolve bool) string {
	switch {
	case arg.Type == proto.RuntimeRemoteObjectTypeString:
		return arg.Value.Str()
	case arg.Subtype == proto.RuntimeRemoteObjectSubtypeError:
		return arg.Description
	case arg.ObjectID != "" && resolve && t.describe != nil:
		if text, err := t.describe(arg); err == nil {
			return text
		}
		return arg.Description
	case arg.Description != "":
		return arg.Description
	default:
		return arg.Value.String()
	}
}
