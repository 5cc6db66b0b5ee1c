package main

import (
	"fmt"

	"rota-go/internal/app"

	"github.com/spf13/cobra"
)

// backup command
var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Encrypted database backups",
}

var backupKeygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate the backup key pair",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		pass, err := promptPassphrase("Passphrase for the private key: ")
		if err != nil {
			return err
		}
		confirm, err := promptPassphrase("Repeat passphrase: ")
		if err != nil {
			return err
		}
		if pass != confirm {
			return fmt.Errorf("passphrases do not match")
		}

		if err := app.GenerateBackupKeys(cfg, pass); err != nil {
			return err
		}
		fmt.Printf("Public key:  %s\n", cfg.Backup.PublicKeyPath)
		fmt.Printf("Private key: %s\n", cfg.Backup.PrivateKeyPath)
		return nil
	},
}

var backupRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Snapshot, encrypt and store the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		name, err := a.Backup(cmd.Context())
		if err != nil {
			return fmt.Errorf("backup failed: %w", err)
		}
		fmt.Printf("Stored %s\n", name)
		return nil
	},
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored snapshots",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		names, err := app.ListBackups(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		if len(names) == 0 {
			fmt.Println("No backups.")
			return nil
		}
		for _, n := range names {
			fmt.Println(n)
		}
		return nil
	},
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore [SNAPSHOT]",
	Short: "Restore a snapshot (default latest) into an empty data dir",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		name := ""
		if len(args) == 1 {
			name = args[0]
		}

		pass, err := promptPassphrase("Passphrase: ")
		if err != nil {
			return err
		}

		restored, err := app.RestoreBackup(cmd.Context(), cfg, name, pass)
		if err != nil {
			return fmt.Errorf("restore failed: %w", err)
		}
		fmt.Printf("Restored %s\n", restored)
		return nil
	},
}

func init() {
	backupCmd.AddCommand(backupKeygenCmd)
	backupCmd.AddCommand(backupRunCmd)
	backupCmd.AddCommand(backupListCmd)
	backupCmd.AddCommand(backupRestoreCmd)

	rootCmd.AddCommand(backupCmd)
}
