// cmd/lease-calc/summary.go
package main

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"equireal-workers/internal/pipeline"
)

func writeSummary(w io.Writer, r *pipeline.QuoteResult, withContract bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	risk, t, ret := r.RiskAssessment, r.DealTerms, r.LandlordReturn

	fmt.Fprintf(tw, "Proposal\t%s\n", r.ProposalID)
	fmt.Fprintf(tw, "Business\t%s (%s, %s)\n", r.Profile.BusinessName, r.Profile.BusinessType, r.Profile.Industry)
	fmt.Fprintf(tw, "Strategy\t%s\n", risk.Strategy)
	fmt.Fprintf(tw, "Risk\t%.1f %s (confidence %.0f%%)\n", risk.OverallRisk, risk.Category, risk.Confidence)
	fmt.Fprintln(tw)

	fmt.Fprintf(tw, "Market rent\t$%.2f/month ($%.2f/sqft/yr, %d sqft)\n", t.MonthlyMarketRent, t.MarketRatePerSqft, t.SpaceSize)
	fmt.Fprintf(tw, "Upfront rent\t%.1f%% = $%.2f/month\n", t.UpfrontRentPercent, t.MonthlyRent)
	fmt.Fprintf(tw, "Equity\t%.2f%%\n", t.EquityPercent)
	fmt.Fprintf(tw, "Revenue share\t%.2f%% for %d years above $%.0f/month\n", t.RevenueSharePercent, t.RevenueShareYears, t.RevenueTrigger)
	fmt.Fprintf(tw, "Deferred\t$%.2f/month\n", t.DeferredAmount)
	if r.DiscountPercent != 0 {
		fmt.Fprintf(tw, "Discount\t%.1f%%\n", r.DiscountPercent)
	}
	fmt.Fprintln(tw)

	fmt.Fprintf(tw, "Landlord traditional\t$%.2f/yr\n", ret.TraditionalAnnual)
	fmt.Fprintf(tw, "Landlord hybrid\t$%.2f total (%+.1f%%)\n", ret.TotalReturn, ret.ImprovementPercent)
	fmt.Fprintf(tw, "Valid until\t%s\n", r.ValidUntil.Format(time.DateOnly))

	if len(risk.Breakdown) > 0 {
		fmt.Fprintln(tw)
		keys := make([]string, 0, len(risk.Breakdown))
		for k := range risk.Breakdown {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(tw, "  %s\t%+.3f\n", k, risk.Breakdown[k])
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, s := range risk.Strengths() {
		fmt.Fprintf(w, "+ %s\n", s)
	}
	for _, c := range risk.Concerns() {
		fmt.Fprintf(w, "- %s\n", c)
	}
	for _, warn := range r.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warn)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, r.Proposal)
	if withContract {
		fmt.Fprintln(w)
		fmt.Fprintln(w, r.Contract)
	}
	return nil
}
