package physics

import (
	"time"
)

// Time is the frame clock. Dt is the wall time since the previous frame.
type Time struct {
	Time time.Time
	Dt   time.Duration

	now func() time.Time
}

type TimeModule struct {
	// Now overrides the clock, for tests.
	Now func() time.Time
}

func (mod TimeModule) Install(app *App, cmd *Commands) {
	now := mod.Now
	if now == nil {
		now = time.Now
	}
	cmd.AddResources(&Time{
		Time: now(),
		now:  now,
	})
	app.UseSystem(System(timeSystem).InStage(Prelude))
}

func timeSystem(t *Time) {
	now := t.now()
	t.Dt = now.Sub(t.Time)
	t.Time = now
}
