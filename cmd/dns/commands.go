package main

import (
	"errors"
	"fmt"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"namereg/internal/directory"
	"namereg/internal/keys"
	"namereg/internal/locator"
	"namereg/internal/records"
	"namereg/internal/registry"
)

var registerCmd = &cobra.Command{
	Use:   "register NAME",
	Short: "Claim a name and publish its record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pair, err := keys.GenerateMessagingKeys()
		if err != nil {
			return err
		}
		rec, err := current.registry.Register(cmd.Context(), registry.Registration{
			Name:      args[0],
			Messaging: pair,
			Owners:    current.identity.Owners(),
		}, current.identity.Private, keys.NoEncryption)
		if err != nil {
			return err
		}
		if err := current.records.Put(cmd.Context(), rec); err != nil {
			err = fmt.Errorf("failed to publish %s: %w", args[0], err)
			if errors.Is(err, records.ErrRecordExists) {
				return err
			}
			return multierr.Append(err, current.registry.Forget(cmd.Context(), args[0]))
		}
		printRecord(cmd, "registered", args[0], rec)
		return nil
	},
}

var publishCmd = &cobra.Command{
	Use:   "publish NAME",
	Short: "Publish the first record of a name registered here but never published",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := current.registry.Reissue(cmd.Context(), args[0], current.identity.Owners(), current.identity.Private, keys.NoEncryption)
		if err != nil {
			return err
		}
		if err := current.records.Put(cmd.Context(), rec); err != nil {
			return fmt.Errorf("failed to publish %s: %w", args[0], err)
		}
		printRecord(cmd, "published", args[0], rec)
		return nil
	},
}

var forgetCmd = &cobra.Command{
	Use:   "forget NAME",
	Short: "Remove a name from this home without publishing a tombstone",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := current.registry.Forget(cmd.Context(), args[0]); err != nil {
			return err
		}
		cmd.Printf("forgot %s\n", args[0])
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete NAME",
	Short: "Release a name and publish its tombstone",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := current.registry.Delete(cmd.Context(), args[0], current.identity.Private)
		if err != nil {
			return err
		}
		if err := current.records.Delete(cmd.Context(), rec); err != nil {
			return fmt.Errorf("failed to publish tombstone for %s: %w", args[0], err)
		}
		printRecord(cmd, "deleted", args[0], rec)
		return nil
	},
}

var namesCmd = &cobra.Command{
	Use:   "names",
	Short: "List the names registered from this home",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		names, err := current.registry.RegisteredNames(cmd.Context())
		if err != nil {
			return err
		}
		for i, name := range names {
			cmd.Printf("<%d> %s\n", i+1, name)
		}
		return nil
	},
}

var servicesCmd = &cobra.Command{
	Use:   "services NAME",
	Short: "List the services of a name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := current.registry.Services(cmd.Context(), args[0], keys.NoEncryption)
		if err != nil {
			return err
		}
		for i, service := range services {
			cmd.Printf("<%d> %s\n", i+1, service)
		}
		return nil
	},
}

var addServiceCmd = &cobra.Command{
	Use:   "add-service NAME SERVICE DIR",
	Short: "Upload DIR as the home directory of SERVICE and add it to NAME",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		name, service, dir := args[0], args[1], args[2]

		b := current.dirs.NewBuilder(directory.HomeDirName(service))
		if err := b.AddDir(ctx, osfs.New(dir), "."); err != nil {
			return err
		}
		loc, err := b.Save(ctx)
		if err != nil {
			return err
		}
		current.logger.Debug("uploaded home directory", zap.String("service", service), zap.String("location", loc.String()))

		rec, err := current.registry.AddService(ctx, name, service, loc, current.identity.Private, keys.NoEncryption)
		if err != nil {
			return err
		}
		if err := current.records.Post(ctx, rec); err != nil {
			return fmt.Errorf("failed to publish %s: %w", name, err)
		}
		printRecord(cmd, "added "+service+" to", name, rec)
		return nil
	},
}

var removeServiceCmd = &cobra.Command{
	Use:   "remove-service NAME SERVICE",
	Short: "Remove SERVICE from NAME",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, service := args[0], args[1]
		rec, err := current.registry.RemoveService(cmd.Context(), name, service, current.identity.Private, keys.NoEncryption)
		if err != nil {
			return err
		}
		if err := current.records.Post(cmd.Context(), rec); err != nil {
			return fmt.Errorf("failed to publish %s: %w", name, err)
		}
		printRecord(cmd, "removed "+service+" from", name, rec)
		return nil
	},
}

var resolveCmd = &cobra.Command{
	Use:   "resolve LOCATOR",
	Short: "Print the storage location a locator resolves to",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		parser := locator.NewParser(current.settings.Scheme, current.settings.DefaultService)
		service, name, err := parser.Parse(args[0])
		if err != nil {
			return err
		}
		loc, err := current.registry.ServiceLocation(cmd.Context(), name, service, keys.NoEncryption)
		if err != nil {
			return err
		}
		cmd.Printf("%s.%s -> %s (public: %t)\n", service, name, loc, loc.Public)
		return nil
	},
}

var browseCmd = &cobra.Command{
	Use:   "browse LOCATOR [FILE]",
	Short: "Print a file, by default the home page, of the service a locator names",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var file string
		if len(args) == 2 {
			file = args[1]
		}
		data, err := current.browser.Open(cmd.Context(), args[0], file)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var showSecret bool

var keysCmd = &cobra.Command{
	Use:   "keys NAME",
	Short: "Print the messaging keys of a name registered from this home",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pair, err := current.registry.MessagingKeys(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		cmd.Printf("public: %s\n", pair.Public)
		if showSecret {
			secret, err := pair.Secret.MarshalText()
			if err != nil {
				return err
			}
			cmd.Printf("secret: %s\n", secret)
		}
		return nil
	},
}

func init() {
	keysCmd.Flags().BoolVar(&showSecret, "show-secret", false, "also print the secret key")
}

func printRecord(cmd *cobra.Command, action, name string, rec records.Record) {
	cmd.Printf("%s %s (address %s, version %d)\n", action, name, rec.Address, rec.Version)
}
