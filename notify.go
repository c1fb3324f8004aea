package viewcache

// Notifier receives user-facing outcome notifications (toasts). The data
// layer emits exactly one notification per settled mutation.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

type NopNotifier struct{}

func (NopNotifier) Success(string) {}
func (NopNotifier) Error(string)   {}
