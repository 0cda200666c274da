package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/excellere/excellere/internal/llm"
	"github.com/excellere/excellere/internal/store"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect the LLM usage log",
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent provider attempts",
	RunE: func(cmd *cobra.Command, args []string) error {
		f := store.EventFilter{}
		f.Limit, _ = cmd.Flags().GetInt("limit")
		f.Purpose, _ = cmd.Flags().GetString("purpose")
		f.FailedOnly, _ = cmd.Flags().GetBool("failed")
		if since, _ := cmd.Flags().GetDuration("since"); since > 0 {
			f.Since = time.Now().Add(-since)
		}

		s, _, err := cliStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		events, err := s.LLMEvents().QueryLLMEvents(cmd.Context(), f)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			fmt.Println(dimStyle.Render("No matching LLM calls."))
			return nil
		}

		t := newTable(5, 16, 14, 26, 3, 7, 7, 7, 16)
		t.header("ID", "When", "Purpose", "Model", "#", "In", "Out", "Ms", "Result")
		for _, e := range events {
			result := okStyle.Render("ok")
			if !e.Success {
				result = failStyle.Render(orDefault(e.ErrorKind, "error"))
			}
			t.row(
				strconv.FormatInt(e.ID, 10),
				e.Timestamp.Local().Format("01-02 15:04:05"),
				e.Purpose,
				truncate(e.Model, 26),
				strconv.Itoa(e.Attempt),
				strconv.Itoa(e.InputTokens),
				strconv.Itoa(e.OutputTokens),
				strconv.FormatInt(e.LatencyMs, 10),
				result,
			)
		}
		return nil
	},
}

var llmViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "Show the full request and response of one attempt",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("event id must be a number, got %q", args[0])
		}

		s, _, err := cliStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		e, err := s.LLMEvents().GetLLMEvent(cmd.Context(), id)
		switch {
		case errors.Is(err, store.ErrNotFound):
			return fmt.Errorf("no LLM event with id %d", id)
		case err != nil:
			return err
		}

		pairs := [][2]string{
			{"Event", strconv.FormatInt(e.ID, 10)},
			{"When", e.Timestamp.Local().Format(time.DateTime)},
			{"Backend", e.Provider + " / " + e.Model},
			{"Purpose", e.Purpose},
			{"Attempt", strconv.Itoa(e.Attempt)},
			{"Tokens", fmt.Sprintf("%d in, %d out", e.InputTokens, e.OutputTokens)},
			{"Latency", (time.Duration(e.LatencyMs) * time.Millisecond).String()},
		}
		for _, p := range pairs {
			fmt.Println(labelStyle.Render(p[0]+":") + p[1])
		}
		if !e.Success {
			fmt.Println(labelStyle.Render("Failed:") + failStyle.Render(orDefault(e.ErrorKind, "error")+" "+e.ErrorMessage))
		}

		for _, body := range []struct{ title, text string }{{"Request", e.RequestBody}, {"Response", e.ResponseBody}} {
			fmt.Println()
			fmt.Println(headingStyle.Render(strings.ToUpper(body.title)))
			fmt.Println(rule(60))
			fmt.Println(orDefault(body.text, dimStyle.Render("(empty)")))
		}
		return nil
	},
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarise token usage, failures and estimated cost",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, _, err := cliStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		repo := s.LLMEvents()
		purposes, err := repo.LLMUsageByPurpose(ctx)
		if err != nil {
			return err
		}
		if len(purposes) == 0 {
			fmt.Println(dimStyle.Render("The usage log is empty."))
			return nil
		}

		fmt.Println(headingStyle.Render("By purpose"))
		t := newTable(16, 7, 7, 11, 11, 8)
		t.header("Purpose", "Calls", "Failed", "In", "Out", "Avg ms")
		var calls, failed, in, out int
		for _, p := range purposes {
			t.row(p.Purpose, strconv.Itoa(p.Calls), strconv.Itoa(p.Failures),
				strconv.Itoa(p.InputTokens), strconv.Itoa(p.OutputTokens), strconv.Itoa(p.AvgLatencyMs))
			calls, failed = calls+p.Calls, failed+p.Failures
			in, out = in+p.InputTokens, out+p.OutputTokens
		}
		t.footer("all", strconv.Itoa(calls), strconv.Itoa(failed), strconv.Itoa(in), strconv.Itoa(out), "")

		kinds, err := repo.LLMFailuresByKind(ctx)
		if err != nil {
			return err
		}
		if len(kinds) > 0 {
			fmt.Println()
			fmt.Println(headingStyle.Render("Failures"))
			t := newTable(18, 7)
			for _, k := range kinds {
				t.row(failStyle.Render(orDefault(k.Kind, "error")), strconv.Itoa(k.Calls))
			}
		}

		models, err := repo.LLMUsageByModel(ctx)
		if err != nil {
			return err
		}
		fmt.Println()
		fmt.Println(headingStyle.Render("Estimated cost (USD)"))
		t = newTable(30, 7, 11, 11, 10)
		t.header("Model", "Calls", "In", "Out", "Cost")
		var total float64
		var unpriced []string
		for _, m := range models {
			cost := "?"
			if c := llm.LookupCost(m.Model); c != nil {
				usd := c.Cost(m.InputTokens, m.OutputTokens)
				total += usd
				cost = formatCost(usd)
			} else {
				unpriced = append(unpriced, m.Model)
			}
			t.row(m.Model, strconv.Itoa(m.Calls), strconv.Itoa(m.InputTokens), strconv.Itoa(m.OutputTokens), cost)
		}
		t.footer("total", "", "", "", formatCost(total))
		if len(unpriced) > 0 {
			fmt.Println(dimStyle.Render("no pricing for " + strings.Join(unpriced, ", ")))
		}
		return nil
	},
}

// table prints fixed-width columns; cells wider than their column are
// cut so rows stay aligned.
type table struct {
	cols []lipgloss.Style
}

func newTable(widths ...int) *table {
	t := &table{}
	for _, w := range widths {
		t.cols = append(t.cols, lipgloss.NewStyle().Width(w+2).MaxWidth(w+2))
	}
	return t
}

func (t *table) line(cells []string) string {
	parts := make([]string, len(cells))
	for i, c := range cells {
		parts[i] = t.cols[i].Render(c)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (t *table) width() int {
	n := 0
	for _, c := range t.cols {
		n += c.GetWidth()
	}
	return n
}

func (t *table) header(cells ...string) {
	fmt.Println(headingStyle.Render(t.line(cells)))
	fmt.Println(rule(t.width()))
}

func (t *table) row(cells ...string) {
	fmt.Println(t.line(cells))
}

func (t *table) footer(cells ...string) {
	fmt.Println(rule(t.width()))
	fmt.Println(t.line(cells))
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}

func init() {
	llmListCmd.Flags().IntP("limit", "n", 20, "Number of attempts to show")
	llmListCmd.Flags().StringP("purpose", "p", "", "Only this purpose ("+
		strings.Join([]string{llm.PurposeTeachBack, llm.PurposeDeeper, llm.PurposeInsightReport}, ", ")+")")
	llmListCmd.Flags().Bool("failed", false, "Only failed attempts")
	llmListCmd.Flags().Duration("since", 0, "Only attempts newer than this, e.g. 24h")

	llmCmd.AddCommand(llmListCmd, llmViewCmd, llmStatsCmd)
}
