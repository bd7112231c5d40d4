package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/vetcore/vetcore/internal/draft"
	"github.com/vetcore/vetcore/internal/types"
)

var draftCmd = &cobra.Command{
	Use:   "draft",
	Short: "Manage encounter drafts through review and commit",
}

func init() {
	rootCmd.AddCommand(draftCmd)
}

var startPatientID string

var draftStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Begin recording a new encounter draft",
	RunE: func(cmd *cobra.Command, args []string) error {
		patientID, err := uuid.Parse(startPatientID)
		if err != nil {
			return fmt.Errorf("parsing patient id: %w", err)
		}
		d, err := core.Drafts.StartRecording(rootCtx, patientID, time.Now())
		if err != nil {
			return fmt.Errorf("starting draft: %w", err)
		}
		printResult(d)
		return nil
	},
}

func init() {
	draftStartCmd.Flags().StringVar(&startPatientID, "patient-id", "", "patient local ID (required)")
	_ = draftStartCmd.MarkFlagRequired("patient-id")
	draftCmd.AddCommand(draftStartCmd)
}

var (
	transcriptDraftID string
	transcriptText    string
)

var draftTranscriptCmd = &cobra.Command{
	Use:   "transcript",
	Short: "Attach the finalized transcript to a draft",
	RunE: func(cmd *cobra.Command, args []string) error {
		draftID, err := uuid.Parse(transcriptDraftID)
		if err != nil {
			return fmt.Errorf("parsing draft id: %w", err)
		}
		d, err := core.Drafts.FinalizeTranscript(rootCtx, draftID, transcriptText, time.Now())
		if err != nil {
			return fmt.Errorf("finalizing transcript: %w", err)
		}
		printResult(d)
		return nil
	},
}

func init() {
	draftTranscriptCmd.Flags().StringVar(&transcriptDraftID, "draft-id", "", "draft ID (required)")
	draftTranscriptCmd.Flags().StringVar(&transcriptText, "text", "", "finalized transcript text")
	_ = draftTranscriptCmd.MarkFlagRequired("draft-id")
	draftCmd.AddCommand(draftTranscriptCmd)
}

var statusDraftID, statusSKU string
var statusIndex int
var statusKind string

var draftStatusCmd = &cobra.Command{
	Use:   "set-status",
	Short: "Set the disposition of one resolved item in a draft",
	RunE: func(cmd *cobra.Command, args []string) error {
		draftID, err := uuid.Parse(statusDraftID)
		if err != nil {
			return fmt.Errorf("parsing draft id: %w", err)
		}

		var status types.ResolutionStatus
		switch statusKind {
		case "approved":
			status = types.Approved()
		case "alternative":
			status = types.AlternativeSelected(statusSKU)
		case "override":
			status = types.ManualOverride(statusSKU)
		case "rejected":
			status = types.Rejected()
		default:
			return fmt.Errorf("unknown status kind %q (want approved, alternative, override, or rejected)", statusKind)
		}

		d, err := core.Drafts.SetItemStatus(rootCtx, draftID, statusIndex, status, time.Now())
		if err != nil {
			return fmt.Errorf("setting item status: %w", err)
		}
		printResult(d)
		return nil
	},
}

func init() {
	draftStatusCmd.Flags().StringVar(&statusDraftID, "draft-id", "", "draft ID (required)")
	draftStatusCmd.Flags().IntVar(&statusIndex, "index", 0, "item index within the draft")
	draftStatusCmd.Flags().StringVar(&statusKind, "status", "", "approved, alternative, override, or rejected (required)")
	draftStatusCmd.Flags().StringVar(&statusSKU, "sku", "", "SKU (required for alternative/override)")
	_ = draftStatusCmd.MarkFlagRequired("draft-id")
	_ = draftStatusCmd.MarkFlagRequired("status")
	draftCmd.AddCommand(draftStatusCmd)
}

var draftListPendingCmd = &cobra.Command{
	Use:   "list-pending",
	Short: "List drafts awaiting review, most in need of attention first",
	RunE: func(cmd *cobra.Command, args []string) error {
		drafts, err := core.Drafts.ListPendingReview(rootCtx)
		if err != nil {
			return fmt.Errorf("listing pending review: %w", err)
		}
		printResult(drafts)
		return nil
	},
}

func init() {
	draftCmd.AddCommand(draftListPendingCmd)
}

var (
	commitDraftID         string
	commitReviewedBy      string
	commitPatientServerID string
	commitNotes           string
)

var draftCommitCmd = &cobra.Command{
	Use:   "commit",
	Short: "Snapshot a reviewed draft and append it to the Merkle log",
	RunE: func(cmd *cobra.Command, args []string) error {
		draftID, err := uuid.Parse(commitDraftID)
		if err != nil {
			return fmt.Errorf("parsing draft id: %w", err)
		}
		d, err := core.Store.GetDraft(rootCtx, draftID)
		if err != nil {
			return fmt.Errorf("fetching draft: %w", err)
		}

		var patientServerID, notes *string
		if commitPatientServerID != "" {
			patientServerID = &commitPatientServerID
		}
		if commitNotes != "" {
			notes = &commitNotes
		}

		now := time.Now()
		encounter, err := draft.ToReviewedEncounter(d, patientServerID, commitReviewedBy, now, notes)
		if err != nil {
			return fmt.Errorf("snapshotting draft: %w", err)
		}

		result, proof, err := core.Merkle.Commit(rootCtx, encounter, now)
		if err != nil {
			return fmt.Errorf("committing encounter: %w", err)
		}

		if err := core.Drafts.MarkCommitted(rootCtx, draftID, now); err != nil {
			return fmt.Errorf("marking draft committed: %w", err)
		}

		printResult(map[string]interface{}{"commit": result, "proof": proof})
		return nil
	},
}

func init() {
	draftCommitCmd.Flags().StringVar(&commitDraftID, "draft-id", "", "draft ID (required)")
	draftCommitCmd.Flags().StringVar(&commitReviewedBy, "reviewed-by", "", "reviewing clinician (required)")
	draftCommitCmd.Flags().StringVar(&commitPatientServerID, "patient-server-id", "", "patient's server-bound ID, if known")
	draftCommitCmd.Flags().StringVar(&commitNotes, "notes", "", "free-text review notes")
	_ = draftCommitCmd.MarkFlagRequired("draft-id")
	_ = draftCommitCmd.MarkFlagRequired("reviewed-by")
	draftCmd.AddCommand(draftCommitCmd)
}
