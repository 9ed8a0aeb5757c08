package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"buildflow/internal/app"
	"buildflow/internal/buildflow"
	"buildflow/internal/config"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates an App. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "SaveVisit", "BackupNow").
func newApp(cmd *cobra.Command, operation string) (*app.App, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewApp(cmd.Context(), cfg, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

// dateArg returns the --date flag value, defaulting to today.
func dateArg(cmd *cobra.Command) string {
	date, _ := cmd.Flags().GetString("date")
	if date == "" {
		return time.Now().Format(buildflow.DateLayout)
	}
	return date
}

var rootCmd = &cobra.Command{
	Use:   "buildflow",
	Short: "Field-service visit records with local persistence and cloud backup",
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["base_dir"])
		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Base Dir:  %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:   %s\n", cfg.LogDir)
		fmt.Printf("Store:     %s\n", cfg.Store.Type)
		fmt.Printf("Transport: %s\n", cfg.Transport.Type)
		return nil
	},
}

// visit command
var visitCmd = &cobra.Command{
	Use:   "visit",
	Short: "Manage site visits",
}

var visitSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Create or update the visit for a date",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "SaveVisit")
		if err != nil {
			return err
		}
		defer a.Close()

		params := app.SaveVisitParams{Date: dateArg(cmd)}
		params.Notes, _ = cmd.Flags().GetString("notes")
		params.ContactID, _ = cmd.Flags().GetString("contact")
		if cmd.Flags().Changed("cost") {
			cost, _ := cmd.Flags().GetFloat64("cost")
			params.EstimatedCost = &cost
		}
		if cmd.Flags().Changed("duration") {
			duration, _ := cmd.Flags().GetFloat64("duration")
			params.EstimatedDuration = &duration
		}

		visit, err := a.SaveVisit(cmd.Context(), params)
		if err != nil {
			return fmt.Errorf("saving visit: %w", err)
		}

		fmt.Printf("Saved visit %s for %s\n", visit.ID, visit.Date)
		return nil
	},
}

var visitShowCmd = &cobra.Command{
	Use:   "show DATE",
	Short: "View the visit for a date",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "GetVisit")
		if err != nil {
			return err
		}
		defer a.Close()

		visit, err := a.Visit(cmd.Context(), args[0])
		if errors.Is(err, buildflow.ErrNotFound) {
			fmt.Printf("No visit recorded for %s.\n", args[0])
			return nil
		}
		if err != nil {
			return err
		}

		printVisit(visit)
		return nil
	},
}

var visitListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all visits",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "ListVisits")
		if err != nil {
			return err
		}
		defer a.Close()

		visits, err := a.Visits(cmd.Context())
		if err != nil {
			return err
		}

		if len(visits) == 0 {
			fmt.Println("No visits recorded.")
			return nil
		}
		for _, v := range visits {
			contact := "-"
			if v.Contact != nil {
				contact = v.Contact.Name
			}
			fmt.Printf("%s  %-20s  photos:%d  %s\n", v.Date, contact, len(v.Photos), v.Notes)
		}
		return nil
	},
}

func printVisit(v *buildflow.SiteVisit) {
	fmt.Printf("Date:     %s\n", v.Date)
	fmt.Printf("Notes:    %s\n", v.Notes)
	if v.Contact != nil {
		fmt.Printf("Contact:  %s (%s)\n", v.Contact.Name, v.Contact.Phone)
	}
	if v.EstimatedCost != nil {
		fmt.Printf("Cost:     %.2f\n", *v.EstimatedCost)
	}
	if v.EstimatedDuration != nil {
		fmt.Printf("Duration: %.1fh\n", *v.EstimatedDuration)
	}
	fmt.Printf("Photos:   %d\n", len(v.Photos))
	fmt.Printf("Updated:  %s\n", v.UpdatedAt)
}

// contact command
var contactCmd = &cobra.Command{
	Use:   "contact",
	Short: "Manage contacts",
}

var contactAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Add or update a contact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "SaveContact")
		if err != nil {
			return err
		}
		defer a.Close()

		contact := &buildflow.Contact{Name: args[0]}
		contact.ID, _ = cmd.Flags().GetString("id")
		contact.Phone, _ = cmd.Flags().GetString("phone")
		contact.Email, _ = cmd.Flags().GetString("email")
		contact.Address, _ = cmd.Flags().GetString("address")

		if err := a.SaveContact(cmd.Context(), contact); err != nil {
			return fmt.Errorf("saving contact: %w", err)
		}

		fmt.Printf("Saved contact %s (%s)\n", contact.Name, contact.ID)
		return nil
	},
}

var contactListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all contacts",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "ListContacts")
		if err != nil {
			return err
		}
		defer a.Close()

		contacts, err := a.Contacts(cmd.Context())
		if err != nil {
			return err
		}

		if len(contacts) == 0 {
			fmt.Println("No contacts.")
			return nil
		}
		for _, c := range contacts {
			fmt.Printf("%s  %-20s  %-15s  %s\n", c.ID, c.Name, c.Phone, c.Email)
		}
		return nil
	},
}

var contactRmCmd = &cobra.Command{
	Use:   "rm ID",
	Short: "Delete a contact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "DeleteContact")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.DeleteContact(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("deleting contact: %w", err)
		}

		fmt.Printf("Deleted contact %s\n", args[0])
		return nil
	},
}

// note command
var noteCmd = &cobra.Command{
	Use:   "note",
	Short: "Manage notepad pages",
}

var noteSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save the notepad page for a date",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "SaveNote")
		if err != nil {
			return err
		}
		defer a.Close()

		params := app.SaveNoteParams{Date: dateArg(cmd)}
		mode, _ := cmd.Flags().GetString("mode")
		params.Mode = buildflow.NoteMode(mode)
		params.TemplateURL, _ = cmd.Flags().GetString("template")

		if canvasFile, _ := cmd.Flags().GetString("canvas-file"); canvasFile != "" {
			data, err := os.ReadFile(canvasFile)
			if err != nil {
				return fmt.Errorf("reading canvas file: %w", err)
			}
			params.CanvasData = string(data)
		}

		note, err := a.SaveNote(cmd.Context(), params)
		if err != nil {
			return fmt.Errorf("saving note: %w", err)
		}

		fmt.Printf("Saved note %s\n", note.ID)
		return nil
	},
}

var noteShowCmd = &cobra.Command{
	Use:   "show DATE",
	Short: "View the notepad page for a date",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "GetNote")
		if err != nil {
			return err
		}
		defer a.Close()

		note, err := a.Note(cmd.Context(), args[0])
		if errors.Is(err, buildflow.ErrNotFound) {
			fmt.Printf("No note for %s.\n", args[0])
			return nil
		}
		if err != nil {
			return err
		}

		fmt.Printf("Note:     %s\n", note.ID)
		fmt.Printf("Mode:     %s\n", note.Mode)
		fmt.Printf("Canvas:   %d bytes\n", len(note.CanvasData))
		fmt.Printf("Images:   %d\n", len(note.Images))
		fmt.Printf("Updated:  %s\n", note.UpdatedAt)
		return nil
	},
}

// backup command
var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Backup and restore",
}

var backupNowCmd = &cobra.Command{
	Use:   "now",
	Short: "Upload a backup to remote storage",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "BackupNow")
		if err != nil {
			return err
		}
		defer a.Close()

		m, err := a.BackupNow(cmd.Context())
		if err != nil {
			return fmt.Errorf("backup failed: %w", err)
		}

		fmt.Printf("Backed up %d item(s) to %s\n", m.ItemCount, m.Location)
		return nil
	},
}

var backupExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a backup file locally",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "ExportBackup")
		if err != nil {
			return err
		}
		defer a.Close()

		location, err := a.ExportBackup(cmd.Context())
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}

		fmt.Printf("Exported backup to %s\n", location)
		return nil
	},
}

var backupImportCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Restore from a backup file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "ImportBackup")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.ImportBackup(cmd.Context(), args[0]); err != nil {
			if errors.Is(err, buildflow.ErrInvalidSnapshot) {
				return fmt.Errorf("invalid backup file: %w", err)
			}
			return fmt.Errorf("import failed: %w", err)
		}

		fmt.Println("Backup imported.")
		return nil
	},
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore KEY",
	Short: "Restore from a remote backup by storage key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "RestoreRemote")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.RestoreRemote(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("restore failed: %w", err)
		}

		fmt.Println("Backup restored.")
		return nil
	},
}

var backupStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "View last-backup status",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "BackupStatus")
		if err != nil {
			return err
		}
		defer a.Close()

		m, due := a.BackupStatus()
		if m == nil {
			fmt.Println("No backup recorded.")
		} else {
			fmt.Printf("Last backup: %s (%d items) at %s\n",
				m.Location, m.ItemCount, m.Date.Format("2006-01-02 15:04:05"))
		}
		if due {
			fmt.Println("A backup is due.")
		}
		return nil
	},
}

var backupAutoCmd = &cobra.Command{
	Use:   "auto",
	Short: "Run an automatic backup if one is due",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "AutoBackup")
		if err != nil {
			return err
		}
		defer a.Close()

		if a.AutoBackup(cmd.Context()) {
			fmt.Println("Automatic backup completed.")
		} else {
			fmt.Println("No backup performed.")
		}
		return nil
	},
}

var backupWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Check backup staleness periodically until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "WatchBackups")
		if err != nil {
			return err
		}
		defer a.Close()

		a.Watch(cmd.Context())
		return nil
	},
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// visit subcommands
	visitCmd.AddCommand(visitSaveCmd)
	visitCmd.AddCommand(visitShowCmd)
	visitCmd.AddCommand(visitListCmd)
	visitSaveCmd.Flags().String("date", "", "Visit date (yyyy-MM-dd, default today)")
	visitSaveCmd.Flags().String("notes", "", "Visit notes")
	visitSaveCmd.Flags().String("contact", "", "Contact id to embed")
	visitSaveCmd.Flags().Float64("cost", 0, "Estimated cost")
	visitSaveCmd.Flags().Float64("duration", 0, "Estimated duration in hours")

	// contact subcommands
	contactCmd.AddCommand(contactAddCmd)
	contactCmd.AddCommand(contactListCmd)
	contactCmd.AddCommand(contactRmCmd)
	contactAddCmd.Flags().String("id", "", "Contact id (update an existing contact)")
	contactAddCmd.Flags().String("phone", "", "Phone number")
	contactAddCmd.Flags().String("email", "", "Email address")
	contactAddCmd.Flags().String("address", "", "Street address")

	// note subcommands
	noteCmd.AddCommand(noteSaveCmd)
	noteCmd.AddCommand(noteShowCmd)
	noteSaveCmd.Flags().String("date", "", "Note date (yyyy-MM-dd, default today)")
	noteSaveCmd.Flags().String("mode", "default", "Page mode: default or custom")
	noteSaveCmd.Flags().String("template", "", "Background template URL (custom mode)")
	noteSaveCmd.Flags().String("canvas-file", "", "File containing serialized canvas data")

	// backup subcommands
	backupCmd.AddCommand(backupNowCmd)
	backupCmd.AddCommand(backupExportCmd)
	backupCmd.AddCommand(backupImportCmd)
	backupCmd.AddCommand(backupRestoreCmd)
	backupCmd.AddCommand(backupStatusCmd)
	backupCmd.AddCommand(backupAutoCmd)
	backupCmd.AddCommand(backupWatchCmd)

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(visitCmd)
	rootCmd.AddCommand(contactCmd)
	rootCmd.AddCommand(noteCmd)
	rootCmd.AddCommand(backupCmd)
}
