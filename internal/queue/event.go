package queue

// eventKind identifies the operation carried by an event.
type eventKind int

const (
	evReload eventKind = iota
	evPush
	evFlush
	evLength
	evList
	evDestroy
)

func (k eventKind) String() string {
	switch k {
	case evReload:
		return "reload"
	case evPush:
		return "push"
	case evFlush:
		return "flush"
	case evLength:
		return "length"
	case evList:
		return "list"
	case evDestroy:
		return "destroy"
	default:
		return "unknown"
	}
}

// event is one mailbox entry: the operation payload plus the result handle
// the issuing call observes. Exactly one of the future fields is set,
// matching the kind.
type event struct {
	kind eventKind

	rec      Record    // evPush
	drain    FlushFunc // evFlush: one-shot override, nil = queue default
	growable bool      // evList
	filter   *Filter   // evList, optional
	erase    bool      // evDestroy: also clear persisted records

	done  *Future[struct{}] // push, flush, destroy
	ready *Future[bool]     // reload
	count *Future[int]      // length
	items *Future[[]Record] // list
}

// fail completes the event's result handle with err. Reload resolves false
// instead: readiness never carries an error, only the outcome.
func (ev *event) fail(err error) {
	switch {
	case ev.done != nil:
		ev.done.fail(err)
	case ev.ready != nil:
		ev.ready.complete(false)
	case ev.count != nil:
		ev.count.fail(err)
	case ev.items != nil:
		ev.items.fail(err)
	}
}
