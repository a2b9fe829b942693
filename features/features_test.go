//go:build integration

package features

import (
	"os"
	"testing"

	"video-to-audio/features/steps"

	"github.com/cucumber/godog"
	"github.com/cucumber/godog/colors"
)

func TestFeatures(t *testing.T) {
	// Every scenario builds its own temp dirs and engine fakes, so order
	// does not matter; undefined steps fail the run instead of being skipped.
	opts := godog.Options{
		Format:    "pretty",
		Output:    colors.Colored(os.Stdout),
		Paths:     []string{"./"},
		Randomize: -1,
		Strict:    true,
		TestingT:  t,
	}

	suite := godog.TestSuite{
		ScenarioInitializer: initializeScenarios,
		Options:             &opts,
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}

// initializeScenarios registers the convert, setup and config steps. Step
// texts are disjoint across the three so one context can hold them all.
func initializeScenarios(ctx *godog.ScenarioContext) {
	steps.InitializeConfigScenario(ctx)
	steps.InitializeSetupScenario(ctx)
	steps.InitializeConvertScenario(ctx)
}
