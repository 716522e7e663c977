package hunter

import (
	"context"
	"sync"

	"github.com/praetorian-inc/errhunter/pkg/types"
)

// Tracked decorates an error with a lazily computed, memoized source code
// lookup. The wrapped error is returned unchanged by Unwrap.
type Tracked struct {
	err    error
	exc    *types.Exception
	hunter *Hunter

	once sync.Once
	code *types.Code
}

// Wrap decorates err. Wrapping a *Tracked returns it as is.
func (h *Hunter) Wrap(err error) *Tracked {
	if t, ok := err.(*Tracked); ok {
		return t
	}
	return &Tracked{err: err, exc: types.FromError(err), hunter: h}
}

func (t *Tracked) Error() string {
	if t.err == nil {
		return "<nil>"
	}
	return t.err.Error()
}

func (t *Tracked) Unwrap() error {
	return t.err
}

// Exception returns the captured message and stack.
func (t *Tracked) Exception() *types.Exception {
	return t.exc
}

// SourceCode returns the annotated source of the failing function, or nil
// when it cannot be determined. The first call does the work; later calls
// return the same result. Failures are logged, never returned.
func (t *Tracked) SourceCode(ctx context.Context) *types.Code {
	t.once.Do(func() {
		t.code = t.lookup(ctx)
	})
	return t.code
}

func (t *Tracked) lookup(ctx context.Context) (code *types.Code) {
	if t.hunter == nil || t.exc == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			t.hunter.logger.Log("symbolication panicked: %v", r)
			code = nil
		}
	}()

	code, err := t.hunter.Symbolicate(ctx, t.exc)
	if err != nil {
		t.hunter.logger.Log("can't get source code: %v", err)
		return nil
	}
	return code
}
