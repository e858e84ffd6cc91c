package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sshcollectorpro/apcounter/internal/credential"
)

var (
	secretsField   string
	secretsEncrypt bool
)

var secretsCmd = &cobra.Command{
	Use:   "secrets",
	Short: "Produce values for the credential file",
	Example: `  # generate a master key for encrypted values
  export APCOUNTER_MASTER_KEY=$(apcounter secrets genkey)

  # base64 value for password_b64
  apcounter secrets encode 'S3cret!'

  # encrypted value for enable_secret_b64
  apcounter secrets encode --field enable_secret --encrypt 'En4ble!'`,
}

var secretsGenKeyCmd = &cobra.Command{
	Use:   "genkey",
	Args:  cobra.NoArgs,
	Short: "Generate a new 32-byte master key (hex)",
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := credential.GenerateMasterKey()
		if err != nil {
			return fmt.Errorf("generate master key: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), key)
		return nil
	},
}

var secretsEncodeCmd = &cobra.Command{
	Use:   "encode [value]",
	Args:  cobra.MaximumNArgs(1),
	Short: "Encode a secret as base64, or encrypt it with the master key",
	Long: `Encode a secret for password_b64 / enable_secret_b64.
Without an argument the value is read from the first line of stdin.`,
	RunE: runSecretsEncode,
}

func init() {
	secretsEncodeCmd.Flags().StringVar(&secretsField, "field", "password", "credential field: password | enable_secret")
	secretsEncodeCmd.Flags().BoolVar(&secretsEncrypt, "encrypt", false, "encrypt with the master key instead of base64")
	secretsCmd.AddCommand(secretsGenKeyCmd, secretsEncodeCmd)
	rootCmd.AddCommand(secretsCmd)
}

func runSecretsEncode(cmd *cobra.Command, args []string) error {
	var plain string
	if len(args) == 1 {
		plain = args[0]
	} else {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("read value from stdin: %w", err)
		}
		plain = strings.TrimRight(line, "\r\n")
	}
	if plain == "" {
		return fmt.Errorf("empty value")
	}

	if !secretsEncrypt {
		fmt.Fprintln(cmd.OutOrStdout(), credential.EncodeBase64(plain))
		return nil
	}

	keyHex := os.Getenv(cfg.Credentials.MasterKeyEnv)
	if keyHex == "" {
		return fmt.Errorf("%s is not set", cfg.Credentials.MasterKeyEnv)
	}
	masterKey, err := credential.ParseMasterKey(keyHex)
	if err != nil {
		return err
	}
	enc, err := credential.EncryptField(masterKey, credential.SaltFor(secretsField), plain)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), enc)
	return nil
}
