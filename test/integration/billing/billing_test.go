package billing_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/cucumber/godog"

	"github.com/traybill/traybill/internal/billing"
)

const billingFeature = `
Feature: Tray billing
  Detected dishes are priced against the menu, unknown dishes get fallback
  pricing, and cashiers can correct misclassified lines.

  Scenario: Pricing a standard tray
    Given a biller with the default menu
    When I bill the items "com, ga chien, canh chua"
    Then the bill has 3 lines
    And the total cost is 44000 VND
    And the total calories are 490

  Scenario: Unknown dishes get fallback pricing
    Given a biller with the default menu
    When I bill the items "com, mystery stew"
    Then the bill has 2 lines
    And line 2 is marked as fallback
    And line 2 keeps the label "mystery stew"
    And the total cost is 20000 VND

  Scenario: Correcting a misclassified line
    Given a biller with the default menu
    When I bill the items "com, ga chien"
    And I correct line 2 to "ca kho"
    Then line 2 keeps the label "ca kho"
    And the total cost is 28000 VND
    And the total calories are 330

  Scenario: Correction outside the bill fails
    Given a biller with the default menu
    When I bill the items "com"
    And I correct line 5 to "tom"
    Then the correction fails
`

type billingState struct {
	biller *billing.Biller
	bill   billing.Bill
	err    error
}

func (s *billingState) aBillerWithTheDefaultMenu() error {
	s.biller = billing.NewBiller(nil)
	return nil
}

func (s *billingState) iBillTheItems(list string) error {
	var labels []string
	for _, part := range strings.Split(list, ",") {
		labels = append(labels, strings.TrimSpace(part))
	}
	s.bill = s.biller.Calculate(labels)
	return nil
}

func (s *billingState) iCorrectLineTo(line int, label string) error {
	updated, err := s.biller.Correct(s.bill, line-1, label)
	if err != nil {
		s.err = err
		return nil
	}
	s.bill = updated
	return nil
}

func (s *billingState) theBillHasLines(n int) error {
	if len(s.bill.Items) != n {
		return fmt.Errorf("expected %d lines, got %d", n, len(s.bill.Items))
	}
	return nil
}

func (s *billingState) theTotalCostIs(cost int64) error {
	if s.bill.TotalCost != cost {
		return fmt.Errorf("expected total cost %d, got %d", cost, s.bill.TotalCost)
	}
	return nil
}

func (s *billingState) theTotalCaloriesAre(cal int) error {
	if s.bill.TotalCalories != cal {
		return fmt.Errorf("expected total calories %d, got %d", cal, s.bill.TotalCalories)
	}
	return nil
}

func (s *billingState) lineIsMarkedAsFallback(line int) error {
	if line < 1 || line > len(s.bill.Items) {
		return fmt.Errorf("line %d outside bill", line)
	}
	if !s.bill.Items[line-1].Fallback {
		return fmt.Errorf("line %d is not marked as fallback", line)
	}
	return nil
}

func (s *billingState) lineKeepsTheLabel(line int, label string) error {
	if line < 1 || line > len(s.bill.Items) {
		return fmt.Errorf("line %d outside bill", line)
	}
	if got := s.bill.Items[line-1].Label; got != label {
		return fmt.Errorf("expected line %d label %q, got %q", line, label, got)
	}
	return nil
}

func (s *billingState) theCorrectionFails() error {
	if s.err == nil {
		return fmt.Errorf("expected the correction to fail")
	}
	return nil
}

func initializeScenario(ctx *godog.ScenarioContext) {
	s := &billingState{}

	ctx.Step(`^a biller with the default menu$`, s.aBillerWithTheDefaultMenu)
	ctx.Step(`^I bill the items "([^"]*)"$`, s.iBillTheItems)
	ctx.Step(`^I correct line (\d+) to "([^"]*)"$`, s.iCorrectLineTo)
	ctx.Step(`^the bill has (\d+) lines?$`, s.theBillHasLines)
	ctx.Step(`^the total cost is (\d+) VND$`, s.theTotalCostIs)
	ctx.Step(`^the total calories are (\d+)$`, s.theTotalCaloriesAre)
	ctx.Step(`^line (\d+) is marked as fallback$`, s.lineIsMarkedAsFallback)
	ctx.Step(`^line (\d+) keeps the label "([^"]*)"$`, s.lineKeepsTheLabel)
	ctx.Step(`^the correction fails$`, s.theCorrectionFails)
}

func TestBillingFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: initializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			TestingT: t,
			FeatureContents: []godog.Feature{
				{Name: "billing.feature", Contents: []byte(billingFeature)},
			},
		},
	}
	if suite.Run() != 0 {
		t.Fatal("billing feature suite failed")
	}
}
