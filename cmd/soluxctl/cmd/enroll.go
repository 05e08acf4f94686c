package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/solux-card/solux_card/internal/card"
	"github.com/solux-card/solux_card/internal/enrollment"
)

func newEnrollCmd(g *globalFlags) *cobra.Command {
	var (
		signup    enrollment.Signup
		pii       enrollment.PII
		swipeOnce bool
	)
	cmd := &cobra.Command{
		Use:   "enroll",
		Short: "Run the enrollment wizard and issue a virtual card",
		Long: `Enroll walks the wizard from welcome to success, enrolling the account
holder and issuing a virtual card through the card issuer. With --swipe a
random charge is then authorized on the new card.`,
		Example: `  soluxctl enroll --first-name Ada --last-name Lovelace --email ada@example.com \
    --dob 1990-12-10 --address1 "1 Main St" --city "New York" --state NY \
    --postal-code 10001 --ssn-last-four 1234 --swipe`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := g.open(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			for _, e := range []enrollment.Event{
				enrollment.EventBegin,
				enrollment.EventFaceCaptured,
				enrollment.EventDocumentUploaded,
			} {
				if _, err := s.Enrollment.Fire(ctx, e); err != nil {
					return err
				}
			}
			if _, err := s.Enrollment.SignUp(ctx, signup); err != nil {
				return err
			}
			st, err := s.Enrollment.Submit(ctx, pii)
			if err != nil {
				return err
			}
			if st.State != enrollment.StateSuccess {
				return fmt.Errorf("enrollment ended in %s: %s", st.State, st.LastError)
			}

			out := map[string]any{"enrollment": st}
			if swipeOnce {
				dec, err := s.Cards.Attempt(ctx, s.Cards.RandomSwipe())
				if err != nil {
					return err
				}
				out["swipe"] = dec
			}
			return printJSON(cmd, out)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&signup.FirstName, "first-name", "", "first name")
	fl.StringVar(&signup.LastName, "last-name", "", "last name")
	fl.StringVar(&signup.Email, "email", "", "email address")
	fl.StringVar(&pii.DOB, "dob", "", "date of birth (YYYY-MM-DD)")
	fl.StringVar(&pii.Address.Address1, "address1", "", "street address")
	fl.StringVar(&pii.Address.Address2, "address2", "", "apartment or suite")
	fl.StringVar(&pii.Address.City, "city", "", "city")
	fl.StringVar(&pii.Address.State, "state", "", "state code")
	fl.StringVar(&pii.Address.PostalCode, "postal-code", "", "postal code")
	fl.StringVar(&pii.Address.Country, "country", "USA", "country code")
	fl.StringVar(&pii.SSNLastFour, "ssn-last-four", "", "last four SSN digits")
	fl.BoolVar(&swipeOnce, "swipe", false, "authorize one random "+card.DefaultCategory+" charge on the new card")
	return cmd
}
