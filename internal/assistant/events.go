package assistant

import "policy-guide/internal/guidance"

// Event is anything the presentation layer can ask the App to do.
type Event interface {
	isEvent()
}

type (
	Submit        struct{ Query string }
	UseStarter    struct{ Index int }
	Completed     struct{ Result guidance.Result }
	SelectHistory struct{ Index int }
	ToggleSidebar struct{}
	SetSidebar    struct{ Open bool }
	RequestClear  struct{}
	CancelClear   struct{}
	ConfirmClear  struct{}
)

func (Submit) isEvent()        {}
func (UseStarter) isEvent()    {}
func (Completed) isEvent()     {}
func (SelectHistory) isEvent() {}
func (ToggleSidebar) isEvent() {}
func (SetSidebar) isEvent()    {}
func (RequestClear) isEvent()  {}
func (CancelClear) isEvent()   {}
func (ConfirmClear) isEvent()  {}
