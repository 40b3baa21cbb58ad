package testutil

import (
	"sync"

	"github.com/dalemusser/stratasite/internal/app/resources"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

var (
	bootOnce sync.Once
	bootErr  error
)

// MustBootTemplates boots the template engine once per test binary with
// the layout set plus every feature set registered by imported packages.
func MustBootTemplates(t interface{ Fatalf(string, ...any) }) {
	bootOnce.Do(func() {
		resources.LoadSharedTemplates()
		eng := templates.New(false)
		logger := zap.NewNop()
		if bootErr = eng.Boot(logger); bootErr == nil {
			templates.UseEngine(eng, logger)
		}
	})
	if bootErr != nil {
		t.Fatalf("boot templates: %v", bootErr)
	}
}
