package core

import "context"

// Response is the presentation collaborator's answer to an input request.
// Accepted is false when the user cancelled.
type Response struct {
	Value    string
	Accepted bool
	// Widget is an opaque handle to the input surface that produced the
	// value, if the collaborator has one.
	Widget any
}

// PathRequest describes a file-system path selection.
type PathRequest struct {
	Title string
	// AllowedTypes lists file extensions, with or without the leading dot.
	// Empty allows any file.
	AllowedTypes     []string
	AllowDirectories bool
}

// Presenter is the presentation collaborator input steps ask for values.
type Presenter interface {
	RequestTextInput(ctx context.Context, title, initial string) (Response, error)
	RequestPathSelection(ctx context.Context, req PathRequest) (Response, error)
}

// Dispatcher runs work on the presentation context. Dispatch blocks until fn
// has returned. If ctx is done before fn starts, fn never runs and ctx.Err()
// is returned.
type Dispatcher interface {
	Dispatch(ctx context.Context, fn func()) error
}

// InlineDispatcher runs fn on the calling goroutine. It suits presenters that
// have no thread requirements, such as scripted answers.
type InlineDispatcher struct{}

func (InlineDispatcher) Dispatch(ctx context.Context, fn func()) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fn()
	return nil
}
