package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/excellere/excellere/internal/curriculum"
	"github.com/excellere/excellere/internal/mastery"
	"github.com/excellere/excellere/internal/store"
)

var nodesCmd = &cobra.Command{
	Use:   "nodes <user-id|email>",
	Short: "Show a learner's knowledge nodes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		moduleID, _ := cmd.Flags().GetString("module")

		s, _, err := cliStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		u, err := findUser(ctx, s, args[0])
		if err != nil {
			return err
		}
		catalog, err := curriculum.Default()
		if err != nil {
			return fmt.Errorf("load curriculum: %w", err)
		}
		if moduleID != "" {
			if _, ok := catalog.Module(moduleID); !ok {
				return fmt.Errorf("unknown module %q", moduleID)
			}
		}

		nodes, err := s.Nodes().List(ctx, u.ID, moduleID)
		if err != nil {
			return err
		}
		if len(nodes) == 0 {
			fmt.Printf("%s has no knowledge nodes yet.\n", displayName(u))
			return nil
		}

		sum := mastery.Summarize(nodes)
		fmt.Println(headingStyle.Render(fmt.Sprintf("%s  %d%% mastered", displayName(u), sum.Percentage)))
		fmt.Println(rule(78))
		fmt.Printf("%-2s %-30s %-11s %-10s %-9s %s\n", "", "Concept", "Status", "Strength", "Tier", "Gaps")
		fmt.Println(rule(78))
		for _, n := range nodes {
			title := n.ConceptID
			if c, ok := catalog.Concept(n.ConceptID); ok {
				title = c.Title
			}
			st := statusStyle(n.Status)
			fmt.Printf("%s %-30s %s %s %3d  %-9s %s\n",
				st.Render(n.Status.Icon()),
				truncate(title, 30),
				st.Width(11).Render(n.Status.Label()),
				strengthBar(n.Strength),
				n.Strength,
				n.Difficulty,
				dimStyle.Render(strings.Join(n.GapFlags, ", ")),
			)
		}
		fmt.Println(rule(78))
		fmt.Println(dimStyle.Render(fmt.Sprintf("%d nodes: %d mastered, %d taught, %d gap, %d introduced",
			sum.Total,
			sum.ByStatus[mastery.StatusMastered],
			sum.ByStatus[mastery.StatusTaught],
			sum.ByStatus[mastery.StatusGap],
			sum.ByStatus[mastery.StatusIntroduced],
		)))
		return nil
	},
}

func init() {
	nodesCmd.Flags().StringP("module", "m", "", "Only show nodes in this module")
}

// findUser resolves a learner by email when ref contains "@", by id
// otherwise.
func findUser(ctx context.Context, s *store.Store, ref string) (*store.User, error) {
	var (
		u   *store.User
		err error
	)
	if strings.Contains(ref, "@") {
		u, err = s.Users().GetByEmail(ctx, ref)
	} else {
		u, err = s.Users().Get(ctx, ref)
	}
	if err != nil {
		return nil, fmt.Errorf("find learner %q: %w", ref, err)
	}
	return u, nil
}

func displayName(u *store.User) string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}
