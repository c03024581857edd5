package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/uhs/uhs/internal/domain/diagnosis"
	"github.com/uhs/uhs/internal/domain/feedback"
	"github.com/uhs/uhs/internal/domain/stock"
	"github.com/uhs/uhs/internal/platform/apiclient"
	"github.com/uhs/uhs/internal/platform/session"
	"github.com/uhs/uhs/pkg/listview"
)

// -- stock --

func stockCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stock",
		Short: "Medicine stock: locations, daily usage logs and exports",
	}

	places := &cobra.Command{
		Use:   "places",
		Short: "List dispensary locations",
		RunE: func(cmd *cobra.Command, args []string) error {
			locs, err := stock.NewService(stock.NewAPIRepository(a.client)).Locations(commandContext(cmd))
			if err != nil {
				return report(err)
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME")
			for _, l := range locs {
				fmt.Fprintf(tw, "%s\t%s\n", l.ID, l.Name)
			}
			return tw.Flush()
		},
	}

	var in stock.LogInput
	submit := &cobra.Command{
		Use:   "log",
		Short: "Record one day's usage of a medicine",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := a.requireRole(session.RoleAdmin, session.RoleAssistant)
			if err != nil {
				return report(err)
			}
			if !cmd.Flags().Changed("balance") {
				in.MedicineBalance = in.OpeningBalance - in.MedicineConsumed
			}
			if err := stock.NewService(stock.NewAPIRepository(client)).SubmitLog(commandContext(cmd), &in); err != nil {
				return report(err)
			}
			fmt.Fprintf(a.out, "Logged %d used, %d left on %s.\n", in.MedicineConsumed, in.MedicineBalance, in.Date)
			return nil
		},
	}
	submit.Flags().StringVar(&in.StockID, "stock", "", "stock item ID")
	submit.Flags().StringVar(&in.LocationID, "location", "", "location ID")
	submit.Flags().StringVar(&in.Date, "date", "", "day of the log (YYYY-MM-DD)")
	submit.Flags().IntVar(&in.OpeningBalance, "opening", 0, "opening balance")
	submit.Flags().IntVar(&in.MedicineConsumed, "consumed", 0, "units consumed")
	submit.Flags().IntVar(&in.MedicineBalance, "balance", 0, "closing balance (default opening - consumed)")

	var (
		location, filter, out string
	)
	exportLogs := &cobra.Command{
		Use:   "export-logs",
		Short: "Download daily logs for a day, week, month or year",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := a.requireRole(session.RoleAdmin, session.RoleDoctor, session.RoleAssistant)
			if err != nil {
				return report(err)
			}
			att, err := stock.NewService(stock.NewAPIRepository(client)).
				ExportLogs(commandContext(cmd), location, stock.FilterType(strings.ToLower(filter)))
			if err != nil {
				return report(err)
			}
			return a.saveAttachment(att, out)
		},
	}
	exportLogs.Flags().StringVar(&location, "location", "", "location ID")
	exportLogs.Flags().StringVar(&filter, "filter", string(stock.FilterDay), "period: day, week, month or year")
	exportLogs.Flags().StringVarP(&out, "output", "o", "", "file to write")

	var q stock.ExportQuery
	var stockOut string
	export := &cobra.Command{
		Use:   "export",
		Short: "Download the advanced stock report",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, s, err := a.requireRole(session.RoleAdmin, session.RoleDoctor, session.RoleAssistant)
			if err != nil {
				return report(err)
			}
			q.Role = s.PrimaryRole()
			att, err := stock.NewService(stock.NewAPIRepository(client)).ExportStock(commandContext(cmd), q)
			if err != nil {
				return report(err)
			}
			return a.saveAttachment(att, stockOut)
		},
	}
	export.Flags().StringVar(&q.LocationID, "location", "", "location ID")
	export.Flags().StringVar(&q.StartDate, "start", "", "first day (YYYY-MM-DD)")
	export.Flags().StringVar(&q.EndDate, "end", "", "last day (YYYY-MM-DD)")
	export.Flags().StringVar(&q.Medicine, "medicine", "", "only this medicine")
	export.Flags().StringVarP(&stockOut, "output", "o", "", "file to write")

	cmd.AddCommand(places, submit, exportLogs, export)
	return cmd
}

// -- feedback --

func feedbackCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feedback",
		Short: "Submit or summarise visit feedback (list with `uhs browse feedback`)",
	}

	var sub feedback.Submission
	submit := &cobra.Command{
		Use:   "submit",
		Short: "Rate your visit from 1 to 5",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, s, err := a.requireRole(session.RolePatient)
			if err != nil {
				return report(err)
			}
			if sub.AppointmentID == "" {
				sub.AppointmentID = s.AppointmentID
			}
			if err := feedback.NewService(feedback.NewAPIRepository(client)).Submit(commandContext(cmd), &sub); err != nil {
				return report(err)
			}
			fmt.Fprintln(a.out, "Thank you for your feedback.")
			return nil
		},
	}
	submit.Flags().IntVar(&sub.Rating, "rating", 0, "rating from 1 to 5")
	submit.Flags().StringVar(&sub.Comment, "comment", "", "optional comment")
	submit.Flags().StringVar(&sub.AppointmentID, "appointment", "", "appointment ID (default: the signed-in appointment)")

	var pages int
	stats := &cobra.Command{
		Use:   "stats",
		Short: "Average rating and distribution",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := a.requireRole(session.RoleAdmin, session.RoleDoctor)
			if err != nil {
				return report(err)
			}
			svc := feedback.NewService(feedback.NewAPIRepository(client))
			var items []feedback.Feedback
			cursor := ""
			for i := 0; i < pages; i++ {
				p, err := svc.List(commandContext(cmd), cursor, listview.Desc)
				if err != nil {
					return report(err)
				}
				items = append(items, p.Items()...)
				if p.NextCursor == "" {
					break
				}
				cursor = p.NextCursor
			}
			st := feedback.Summarize(items)
			fmt.Fprintf(a.out, "%d ratings, average %.2f\n", st.Count, st.Average)
			for r := feedback.MaxRating; r >= feedback.MinRating; r-- {
				fmt.Fprintf(a.out, "  %d  %s %d\n", r, strings.Repeat("#", st.Distribution[r-1]), st.Distribution[r-1])
			}
			return nil
		},
	}
	stats.Flags().IntVar(&pages, "pages", 10, "maximum number of pages to read")

	cmd.AddCommand(submit, stats)
	return cmd
}

// -- diagnosis --

func diagnosisCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diagnosis",
		Short: "Diagnosis frequencies (list with `uhs browse diagnosis`)",
	}

	var opts diagnosis.CloudOptions
	cloud := &cobra.Command{
		Use:   "wordcloud",
		Short: "Print each diagnosis with its word-cloud font size",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := a.requireRole(session.RoleAdmin, session.RoleDoctor)
			if err != nil {
				return report(err)
			}
			words, err := diagnosisService(client).WordCloud(commandContext(cmd), opts)
			if err != nil {
				return report(err)
			}
			if len(words) == 0 {
				fmt.Fprintln(a.out, "No diagnoses recorded.")
				return nil
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DIAGNOSIS\tCOUNT\tSIZE")
			for _, w := range words {
				fmt.Fprintf(tw, "%s\t%d\t%.1f\n", w.Text, w.Count, w.FontSize)
			}
			return tw.Flush()
		},
	}
	cloud.Flags().Float64Var(&opts.MinFont, "min", diagnosis.DefaultMinFont, "smallest font size")
	cloud.Flags().Float64Var(&opts.MaxFont, "max", diagnosis.DefaultMaxFont, "largest font size")
	cloud.Flags().IntVar(&opts.Limit, "limit", 0, "only the most frequent N diagnoses")

	cmd.AddCommand(cloud)
	return cmd
}

func diagnosisService(client *apiclient.Client) *diagnosis.Service {
	return diagnosis.NewService(diagnosis.NewAPIRepository(client))
}
