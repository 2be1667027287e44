//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"strings"
	"testing"

	"github.com/cucumber/godog"

	"github.com/jsamuelsen/certrecord/internal/app"
	"github.com/jsamuelsen/certrecord/internal/domain"
)

// testContext holds state shared across step definitions within a scenario.
type testContext struct {
	record     *domain.Record
	callerList []string
	removed    *bool
	scriptErr  error
}

// reset clears state between scenarios.
func (tc *testContext) reset() {
	tc.record = nil
	tc.callerList = nil
	tc.removed = nil
	tc.scriptErr = nil
}

// InitializeScenario registers step definitions for each scenario.
func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &testContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	ctx.Step(`^an empty record$`, tc.anEmptyRecord)
	ctx.Step(`^a record holding CNIL but not ANSSI$`, tc.aRecordHoldingCNILOnly)
	ctx.Step(`^a record with diplomas "([^"]*)"$`, tc.aRecordWithDiplomas)
	ctx.Step(`^a record with diplomas "([^"]*)" from a caller-owned list$`, tc.aRecordFromCallerList)
	ctx.Step(`^the caller overwrites its list with "([^"]*)"$`, tc.theCallerOverwritesItsList)
	ctx.Step(`^I set the skill level to "([^"]*)"$`, tc.iSetTheSkillLevel)
	ctx.Step(`^I add the baccalaureate$`, tc.iAddTheBaccalaureate)
	ctx.Step(`^I add the baccalaureate with mention "([^"]*)"$`, tc.iAddTheBaccalaureateWithMention)
	ctx.Step(`^I add the brevet$`, tc.iAddTheBrevet)
	ctx.Step(`^I add the diploma "([^"]*)"$`, tc.iAddTheDiploma)
	ctx.Step(`^I remove the diploma "([^"]*)"$`, tc.iRemoveTheDiploma)
	ctx.Step(`^I tamper with the exported diplomas$`, tc.iTamperWithTheExportedDiplomas)
	ctx.Step(`^I apply the script "([^"]*)"$`, tc.iApplyTheScript)
	ctx.Step(`^the removal should report (true|false)$`, tc.theRemovalShouldReport)
	ctx.Step(`^the diplomas should be "([^"]*)"$`, tc.theDiplomasShouldBe)
	ctx.Step(`^the export should be:$`, tc.theExportShouldBe)
	ctx.Step(`^the script should be rejected as invalid$`, tc.theScriptShouldBeRejected)
}

// splitList parses "a, b, c" into its items. An empty string is an empty list.
func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return []string{}
	}

	parts := strings.Split(s, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

func (tc *testContext) anEmptyRecord() error {
	tc.record = domain.NewRecord(domain.RecordParams{})
	return nil
}

func (tc *testContext) aRecordHoldingCNILOnly() error {
	tc.record = domain.NewRecord(domain.RecordParams{HoldsCNIL: true, HoldsANSSI: false})
	return nil
}

func (tc *testContext) aRecordWithDiplomas(list string) error {
	tc.record = domain.NewRecord(domain.RecordParams{Diplomas: splitList(list)})
	return nil
}

func (tc *testContext) aRecordFromCallerList(list string) error {
	tc.callerList = splitList(list)
	tc.record = domain.NewRecord(domain.RecordParams{Diplomas: tc.callerList})
	return nil
}

func (tc *testContext) theCallerOverwritesItsList(value string) error {
	for i := range tc.callerList {
		tc.callerList[i] = value
	}
	return nil
}

func (tc *testContext) iSetTheSkillLevel(level string) error {
	tc.record.SetSkillLevel(level)
	return nil
}

func (tc *testContext) iAddTheBaccalaureate() error {
	tc.record.AddBaccalaureate("")
	return nil
}

func (tc *testContext) iAddTheBaccalaureateWithMention(mention string) error {
	tc.record.AddBaccalaureate(mention)
	return nil
}

func (tc *testContext) iAddTheBrevet() error {
	tc.record.AddBrevet()
	return nil
}

func (tc *testContext) iAddTheDiploma(name string) error {
	tc.record.AddDiploma(name)
	return nil
}

func (tc *testContext) iRemoveTheDiploma(name string) error {
	removed := tc.record.RemoveDiploma(name)
	tc.removed = &removed
	return nil
}

func (tc *testContext) iTamperWithTheExportedDiplomas() error {
	diplomas, ok := tc.record.ToMap()["diplomas"].([]string)
	if !ok {
		return fmt.Errorf("exported diplomas are not a []string")
	}
	for i := range diplomas {
		diplomas[i] = "tampered"
	}
	return nil
}

// iApplyTheScript parses "op:arg, op" and runs it through the editor.
func (tc *testContext) iApplyTheScript(script string) error {
	var steps []app.Step
	for _, item := range splitList(script) {
		op, arg, _ := strings.Cut(item, ":")
		steps = append(steps, app.Step{Op: app.Op(op), Arg: arg})
	}

	tc.scriptErr = app.NewRecordEditor(tc.record, nil).Apply(context.Background(), steps)
	return nil
}

func (tc *testContext) theRemovalShouldReport(expected string) error {
	if tc.removed == nil {
		return fmt.Errorf("no removal was attempted")
	}

	if got := fmt.Sprint(*tc.removed); got != expected {
		return fmt.Errorf("expected removal to report %s, got %s", expected, got)
	}
	return nil
}

func (tc *testContext) theDiplomasShouldBe(list string) error {
	want := splitList(list)
	got := tc.record.Diplomas()

	if !reflect.DeepEqual(want, got) {
		return fmt.Errorf("expected diplomas %q, got %q", want, got)
	}
	return nil
}

func (tc *testContext) theExportShouldBe(doc *godog.DocString) error {
	var want map[string]any
	if err := json.Unmarshal([]byte(doc.Content), &want); err != nil {
		return fmt.Errorf("parsing expected export: %w", err)
	}

	raw, err := json.Marshal(tc.record.ToMap())
	if err != nil {
		return fmt.Errorf("marshalling export: %w", err)
	}

	var got map[string]any
	if err := json.Unmarshal(raw, &got); err != nil {
		return fmt.Errorf("parsing export: %w", err)
	}

	if !reflect.DeepEqual(want, got) {
		return fmt.Errorf("expected export %v, got %v", want, got)
	}
	return nil
}

func (tc *testContext) theScriptShouldBeRejected() error {
	if !domain.IsValidation(tc.scriptErr) {
		return fmt.Errorf("expected a validation error, got %v", tc.scriptErr)
	}
	return nil
}

// TestFeatures runs the GoDog BDD test suite.
func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"../features"},
			TestingT: t,
			Tags:     os.Getenv("GODOG_TAGS"),
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
