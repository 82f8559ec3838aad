package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"runtime"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Superguppi/openclaw-bring-integration/internal/cli/prompt"
	"github.com/Superguppi/openclaw-bring-integration/internal/config"
	"github.com/Superguppi/openclaw-bring-integration/internal/credentials"
	"github.com/Superguppi/openclaw-bring-integration/internal/shutdown"
	"github.com/Superguppi/openclaw-bring-integration/internal/tui"
	"github.com/Superguppi/openclaw-bring-integration/internal/utils"
	"github.com/Superguppi/openclaw-bring-integration/service"
	"github.com/Superguppi/openclaw-bring-integration/service/bring"
	"github.com/Superguppi/openclaw-bring-integration/session"
)

// Version information set at build time
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// Result codes for CLI output (used in no-prompt mode)
const (
	ResultActionCompleted = "ACTION_COMPLETED"
	ResultInfoOnly        = "INFO_ONLY"
	ResultError           = "ERROR"
)

// Config holds application configuration
type Config struct {
	NoPrompt     bool
	Verbose      bool
	OutputFormat string
	ConfigPath   string              // Path to config file (for testing)
	APIBaseURL   string              // Override for the Bring! API endpoint (for testing)
	Service      service.ListService // Injected list service, bypasses the HTTP client (for testing)
	Keyring      credentials.Keyring // Injected keyring (for testing)
	Stdin        io.Reader           // Input for interactive prompts, defaults to os.Stdin
}

// Execute runs the CLI with the given arguments and IO writers
func Execute(args []string, stdout, stderr io.Writer, cfg *Config) int {
	rootCmd := NewBring(stdout, stderr, cfg)

	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	if err := rootCmd.Execute(); err != nil {
		// Check if --json flag was passed to output error as JSON
		jsonOutput := containsJSONFlag(args)
		if jsonOutput {
			outputErrorJSON(err, stdout)
		} else {
			_, _ = fmt.Fprintln(stderr, "Error:", err)
			// Emit ERROR result code in no-prompt mode
			if cfg != nil && cfg.NoPrompt {
				_, _ = fmt.Fprintln(stdout, ResultError)
			}
		}
		return 1
	}
	return 0
}

// containsJSONFlag checks if args contain --json flag
func containsJSONFlag(args []string) bool {
	for _, arg := range args {
		if arg == "--json" {
			return true
		}
	}
	return false
}

// NewBring creates the root command with injectable IO
func NewBring(stdout, stderr io.Writer, cfg *Config) *cobra.Command {
	if cfg == nil {
		cfg = &Config{}
	}

	cmd := &cobra.Command{
		Use:     "bring",
		Short:   "A Bring! shopping list CLI",
		Long:    "bring is a command-line client for Bring! shopping lists.\n\nIt signs in with the account from the system keyring or the BRING_EMAIL\nand BRING_PASSWORD environment variables and holds one connection for\nthe lifetime of a command.",
		Version: Version,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fileCfg, jsonOutput, err := setupCommand(cmd, cfg)
			if err != nil {
				return err
			}

			ctx := context.Background()
			sess, _, err := getSession(ctx, cfg, fileCfg)
			if err != nil {
				return err
			}
			defer func() { _ = sess.Close() }()

			// No arguments shows the account's lists
			return doLists(ctx, sess, false, fileCfg.DefaultList, cfg, stdout, jsonOutput)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Add global flags
	cmd.PersistentFlags().BoolP("no-prompt", "y", false, "Disable interactive prompts")
	cmd.PersistentFlags().BoolP("verbose", "V", false, "Enable verbose/debug output")
	cmd.PersistentFlags().Bool("json", false, "Output in JSON format")
	cmd.PersistentFlags().String("config", "", "Path to config file")

	// Add subcommands
	cmd.AddCommand(newListsCmd(stdout, cfg))
	cmd.AddCommand(newShowCmd(stdout, cfg))
	cmd.AddCommand(newAddCmd(stdout, cfg))
	cmd.AddCommand(newCompleteCmd(stdout, cfg))
	cmd.AddCommand(newRemoveCmd(stdout, cfg))
	cmd.AddCommand(newBatchCmd(stdout, cfg))
	cmd.AddCommand(newUserCmd(stdout, cfg))
	cmd.AddCommand(newVersionCmd(stdout, cfg))
	cmd.AddCommand(newCredentialsCmd(stdout, stderr, cfg))
	cmd.AddCommand(newTuiCmd(stdout, stderr, cfg))

	return cmd
}

// setupCommand loads the config file and merges global flags into cfg.
// Returns the file config and whether JSON output was requested.
func setupCommand(cmd *cobra.Command, cfg *Config) (*config.Config, bool, error) {
	path := cfg.ConfigPath
	if flagPath, _ := cmd.Flags().GetString("config"); flagPath != "" {
		path = flagPath
	}

	fileCfg, err := config.Load(path)
	if err != nil {
		return nil, false, err
	}
	if err := fileCfg.Validate(); err != nil {
		return nil, false, err
	}

	// Flags take precedence over file values
	noPrompt, _ := cmd.Flags().GetBool("no-prompt")
	outputFormat := cfg.OutputFormat
	if jsonFlag, _ := cmd.Flags().GetBool("json"); jsonFlag {
		outputFormat = "json"
	}
	fileCfg.ApplyFlags(noPrompt, outputFormat)

	if fileCfg.NoPrompt {
		cfg.NoPrompt = true
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		cfg.Verbose = true
	}
	utils.SetVerboseMode(cfg.Verbose)

	return fileCfg, fileCfg.OutputFormat == "json", nil
}

// stdinOf returns the input stream for interactive prompts
func stdinOf(cfg *Config) io.Reader {
	if cfg.Stdin != nil {
		return cfg.Stdin
	}
	return os.Stdin
}

// newCredentialsManager builds the credential manager honoring the config
// keyring toggle and test overrides.
func newCredentialsManager(cfg *Config, fileCfg *config.Config) *credentials.Manager {
	var opts []credentials.ManagerOption
	if cfg.Keyring != nil {
		opts = append(opts, credentials.WithKeyring(cfg.Keyring))
	} else if !fileCfg.IsKeyringEnabled() {
		opts = append(opts, credentials.WithoutKeyring())
	}
	return credentials.NewManager(opts...)
}

// getSession resolves credentials, connects to the service, and returns a
// logged-in session with the configured default list applied. The caller
// owns closing the session.
func getSession(ctx context.Context, cfg *Config, fileCfg *config.Config) (*session.Session, string, error) {
	svc := cfg.Service
	email := credentials.ResolveEmail(fileCfg.Credentials.Email)

	if svc == nil {
		if email == "" {
			return nil, "", utils.ErrCredentialsNotFound()
		}

		mgr := newCredentialsManager(cfg, fileCfg)
		info, err := mgr.Get(ctx, email)
		if err != nil {
			return nil, "", err
		}
		if !info.Found {
			return nil, "", utils.ErrCredentialsNotFound()
		}
		utils.Debugf("resolved credentials for %s from %s", email, info.Source)

		baseURL := cfg.APIBaseURL
		if baseURL == "" {
			baseURL = fileCfg.API.BaseURL
		}

		client, err := bring.New(bring.Config{
			Email:    email,
			Password: info.Password,
			BaseURL:  baseURL,
			Country:  fileCfg.GetCountry(),
		})
		if err != nil {
			return nil, "", wrapServiceError(err)
		}
		svc = client
	}

	sess := session.New(svc)
	if err := sess.Login(ctx); err != nil {
		_ = sess.Close()
		return nil, "", wrapServiceError(err)
	}

	if fileCfg.DefaultList != "" {
		found, err := sess.SetDefault(ctx, fileCfg.DefaultList)
		if err != nil {
			_ = sess.Close()
			return nil, "", wrapServiceError(err)
		}
		if !found {
			utils.Warnf("default list %q not found in account", fileCfg.DefaultList)
		}
	}

	return sess, email, nil
}

// wrapServiceError attaches user-facing suggestions to known failures at
// the CLI boundary. Unknown errors pass through unchanged.
func wrapServiceError(err error) error {
	switch {
	case errors.Is(err, service.ErrMissingCredentials):
		return utils.WrapWithSuggestion(err,
			"Set BRING_EMAIL and BRING_PASSWORD environment variables or run 'bring credentials set <email> --prompt'")
	case errors.Is(err, service.ErrAuthenticationFailed):
		return utils.WrapWithSuggestion(err, "Verify your email and password are correct")
	case errors.Is(err, service.ErrNoDefaultList):
		return utils.WrapWithSuggestion(err, "Name the list in the command or set default_list in your config file")
	case errors.Is(err, service.ErrListNotFound):
		return utils.WrapWithSuggestion(err, "Run 'bring lists' to see the lists of your account")
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return utils.ErrServiceOffline(urlErr.Err.Error())
	}

	return err
}

// displayListName resolves a list argument to its canonical catalog name.
// Falls back to the argument itself if resolution fails.
func displayListName(ctx context.Context, sess *session.Session, listName string) string {
	id, err := sess.Resolve(ctx, listName)
	if err != nil {
		return listName
	}
	return sess.NameOf(id)
}

// formatItem renders an item with its specification for text output
func formatItem(it service.Item) string {
	if it.Specification != "" {
		return fmt.Sprintf("%s (%s)", it.Name, it.Specification)
	}
	return it.Name
}

// splitItemArg splits "Milk: 1 liter" into name and specification.
// Input without a colon is just the name.
func splitItemArg(value string) (string, string) {
	name, spec, found := strings.Cut(value, ":")
	if !found {
		return strings.TrimSpace(value), ""
	}
	return strings.TrimSpace(name), strings.TrimSpace(spec)
}

// =============================================================================
// JSON output
// =============================================================================

type itemJSON struct {
	Name          string `json:"name"`
	Specification string `json:"specification,omitempty"`
}

type listJSON struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Theme   string `json:"theme,omitempty"`
	Default bool   `json:"default,omitempty"`
}

type catalogResponse struct {
	Lists  []listJSON `json:"lists"`
	Count  int        `json:"count"`
	Result string     `json:"result"`
}

type contentsResponse struct {
	List              string     `json:"list"`
	ToBuy             []itemJSON `json:"to_buy"`
	RecentlyPurchased []itemJSON `json:"recently_purchased"`
	Count             int        `json:"count"`
	Result            string     `json:"result"`
}

type actionResponse struct {
	Action string   `json:"action"`
	List   string   `json:"list,omitempty"`
	Item   itemJSON `json:"item"`
	Result string   `json:"result"`
}

type batchResponse struct {
	Action string     `json:"action"`
	List   string     `json:"list"`
	Items  []itemJSON `json:"items"`
	Count  int        `json:"count"`
	Result string     `json:"result"`
}

type accountResponse struct {
	Email  string `json:"email"`
	Lists  int    `json:"lists"`
	Result string `json:"result"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Code   int    `json:"code"`
	Result string `json:"result"`
}

func itemsToJSON(items []service.Item) []itemJSON {
	out := make([]itemJSON, 0, len(items))
	for _, it := range items {
		out = append(out, itemJSON{Name: it.Name, Specification: it.Specification})
	}
	return out
}

func outputJSON(v interface{}, stdout io.Writer) error {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(stdout, string(jsonBytes))
	return nil
}

// outputErrorJSON outputs error in JSON format
func outputErrorJSON(err error, stdout io.Writer) {
	response := errorResponse{
		Error:  err.Error(),
		Code:   1,
		Result: ResultError,
	}

	jsonBytes, _ := json.Marshal(response)
	_, _ = fmt.Fprintln(stdout, string(jsonBytes))
}

// =============================================================================
// lists
// =============================================================================

// newListsCmd creates the 'lists' subcommand
func newListsCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lists",
		Short: "Show all shopping lists",
		Long:  "Display the shopping lists of the account. The catalog is cached for the run; --refresh forces a new fetch.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fileCfg, jsonOutput, err := setupCommand(cmd, cfg)
			if err != nil {
				return err
			}

			refresh, _ := cmd.Flags().GetBool("refresh")

			ctx := context.Background()
			sess, _, err := getSession(ctx, cfg, fileCfg)
			if err != nil {
				return err
			}
			defer func() { _ = sess.Close() }()

			return doLists(ctx, sess, refresh, fileCfg.DefaultList, cfg, stdout, jsonOutput)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Flags().Bool("refresh", false, "Fetch the list catalog again instead of using the cached one")
	return cmd
}

// doLists displays the account's shopping lists
func doLists(ctx context.Context, sess *session.Session, refresh bool, defaultList string, cfg *Config, stdout io.Writer, jsonOutput bool) error {
	lists, err := sess.FetchCatalog(ctx, refresh)
	if err != nil {
		return wrapServiceError(err)
	}

	if jsonOutput {
		output := make([]listJSON, 0, len(lists))
		for _, l := range lists {
			output = append(output, listJSON{
				ID:      l.ID,
				Name:    l.Name,
				Theme:   l.Theme,
				Default: defaultList != "" && strings.EqualFold(l.Name, defaultList),
			})
		}
		return outputJSON(catalogResponse{
			Lists:  output,
			Count:  len(output),
			Result: ResultInfoOnly,
		}, stdout)
	}

	if len(lists) == 0 {
		_, _ = fmt.Fprintln(stdout, "No shopping lists found in your account.")
		if cfg != nil && cfg.NoPrompt {
			_, _ = fmt.Fprintln(stdout, ResultInfoOnly)
		}
		return nil
	}

	_, _ = fmt.Fprintf(stdout, "Available lists (%d):\n\n", len(lists))
	_, _ = fmt.Fprintf(stdout, "%-24s %-38s %s\n", "NAME", "UUID", "THEME")
	for _, l := range lists {
		name := l.Name
		if defaultList != "" && strings.EqualFold(l.Name, defaultList) {
			name += " (default)"
		}
		theme := l.Theme
		if theme == "" {
			theme = "default"
		}
		_, _ = fmt.Fprintf(stdout, "%-24s %-38s %s\n", name, l.ID, theme)
	}

	if cfg != nil && cfg.NoPrompt {
		_, _ = fmt.Fprintln(stdout, ResultInfoOnly)
	}
	return nil
}

// =============================================================================
// show
// =============================================================================

// newShowCmd creates the 'show' subcommand
func newShowCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "show [list]",
		Short: "Show the items of a list",
		Long:  "Display the open items and the recently purchased items of a list.\nWithout an argument the configured default list is shown.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fileCfg, jsonOutput, err := setupCommand(cmd, cfg)
			if err != nil {
				return err
			}

			listName := ""
			if len(args) > 0 {
				listName = args[0]
				if err := utils.ValidateListName(listName); err != nil {
					return err
				}
			}

			ctx := context.Background()
			sess, _, err := getSession(ctx, cfg, fileCfg)
			if err != nil {
				return err
			}
			defer func() { _ = sess.Close() }()

			return doShow(ctx, sess, listName, fileCfg, cfg, stdout, jsonOutput)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

// doShow displays the contents of one list
func doShow(ctx context.Context, sess *session.Session, listName string, fileCfg *config.Config, cfg *Config, stdout io.Writer, jsonOutput bool) error {
	contents, err := sess.Items(ctx, listName)
	if err != nil {
		return wrapServiceError(err)
	}

	name := displayListName(ctx, sess, listName)

	// Cap the purchased section to the configured number of entries
	recentShown := fileCfg.GetRecentlyShown()
	recent := contents.RecentlyCompleted
	if recentShown >= 0 && len(recent) > recentShown {
		recent = recent[:recentShown]
	}

	if jsonOutput {
		return outputJSON(contentsResponse{
			List:              name,
			ToBuy:             itemsToJSON(contents.ToBuy),
			RecentlyPurchased: itemsToJSON(recent),
			Count:             len(contents.ToBuy),
			Result:            ResultInfoOnly,
		}, stdout)
	}

	_, _ = fmt.Fprintf(stdout, "Items in '%s':\n\n", name)
	_, _ = fmt.Fprintf(stdout, "To buy (%d):\n", len(contents.ToBuy))
	if len(contents.ToBuy) == 0 {
		_, _ = fmt.Fprintln(stdout, "  (empty)")
	}
	for _, it := range contents.ToBuy {
		_, _ = fmt.Fprintf(stdout, "  [ ] %s\n", formatItem(it))
	}

	if len(recent) > 0 {
		_, _ = fmt.Fprintln(stdout)
		_, _ = fmt.Fprintln(stdout, "Recently purchased:")
		for _, it := range recent {
			_, _ = fmt.Fprintf(stdout, "  [x] %s\n", formatItem(it))
		}
	}

	if cfg != nil && cfg.NoPrompt {
		_, _ = fmt.Fprintln(stdout, ResultInfoOnly)
	}
	return nil
}

// =============================================================================
// add
// =============================================================================

// newAddCmd creates the 'add' subcommand
func newAddCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add [list] [item]",
		Short: "Add an item to a list",
		Long:  "Add an item to a shopping list. With one argument the item goes on the\ndefault list; with two the first argument names the list. Without\narguments an interactive prompt collects the item.",
		Args:  cobra.RangeArgs(0, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fileCfg, jsonOutput, err := setupCommand(cmd, cfg)
			if err != nil {
				return err
			}

			spec, _ := cmd.Flags().GetString("spec")

			listName, itemName := "", ""
			switch len(args) {
			case 1:
				itemName = args[0]
			case 2:
				listName, itemName = args[0], args[1]
				if err := utils.ValidateListName(listName); err != nil {
					return err
				}
			}
			if len(args) > 0 {
				if err := utils.ValidateItemName(itemName); err != nil {
					return err
				}
			}

			ctx := context.Background()
			sess, _, err := getSession(ctx, cfg, fileCfg)
			if err != nil {
				return err
			}
			defer func() { _ = sess.Close() }()

			// Interactive add mode when no item was named
			if len(args) == 0 {
				fields, err := runItemPrompt(cfg, stdout)
				if err != nil {
					return err
				}
				if fields == nil {
					return nil // cancelled
				}
				itemName = fields.Name
				if spec == "" {
					spec = fields.Specification
				}
			}

			return doAdd(ctx, sess, listName, itemName, spec, cfg, stdout, jsonOutput)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Flags().StringP("spec", "s", "", "Specification such as amount or brand (e.g. \"1 liter\")")
	return cmd
}

// runItemPrompt collects item fields interactively. Returns nil fields if
// the input was cancelled.
func runItemPrompt(cfg *Config, stdout io.Writer) (*prompt.ItemFields, error) {
	p := prompt.ItemPrompt{
		Reader:   stdinOf(cfg),
		Writer:   stdout,
		NoPrompt: cfg.NoPrompt,
	}
	fields, err := p.Run()
	if err != nil {
		if errors.Is(err, prompt.ErrNoPromptMode) {
			return nil, utils.WrapWithSuggestion(err, "Provide the item name, e.g. 'bring add Milk'")
		}
		return nil, err
	}
	return fields, nil
}

// doAdd adds one item to a list
func doAdd(ctx context.Context, sess *session.Session, listName, itemName, spec string, cfg *Config, stdout io.Writer, jsonOutput bool) error {
	if err := sess.AddItem(ctx, listName, itemName, spec); err != nil {
		return wrapServiceError(err)
	}

	item := service.Item{Name: itemName, Specification: spec}

	if jsonOutput {
		return outputJSON(actionResponse{
			Action: "add",
			List:   displayListName(ctx, sess, listName),
			Item:   itemJSON{Name: item.Name, Specification: item.Specification},
			Result: ResultActionCompleted,
		}, stdout)
	}

	_, _ = fmt.Fprintf(stdout, "Added item: %s\n", formatItem(item))

	if cfg != nil && cfg.NoPrompt {
		_, _ = fmt.Fprintln(stdout, ResultActionCompleted)
	}
	return nil
}

// =============================================================================
// complete
// =============================================================================

// newCompleteCmd creates the 'complete' subcommand
func newCompleteCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "complete [list] [item]",
		Short: "Mark an item as purchased",
		Long:  "Move an item from the purchase list to the recently purchased section.\nWithout an item argument an interactive picker is shown.",
		Args:  cobra.RangeArgs(0, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fileCfg, jsonOutput, err := setupCommand(cmd, cfg)
			if err != nil {
				return err
			}

			listName, itemArg := parseListItemArgs(args)
			if listName != "" {
				if err := utils.ValidateListName(listName); err != nil {
					return err
				}
			}

			ctx := context.Background()
			sess, _, err := getSession(ctx, cfg, fileCfg)
			if err != nil {
				return err
			}
			defer func() { _ = sess.Close() }()

			return doComplete(ctx, sess, listName, itemArg, cfg, stdout, jsonOutput)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

// parseListItemArgs maps optional [list] [item] positionals: one argument
// is the item on the default list, two are list and item.
func parseListItemArgs(args []string) (listName, itemArg string) {
	switch len(args) {
	case 1:
		itemArg = args[0]
	case 2:
		listName, itemArg = args[0], args[1]
	}
	return listName, itemArg
}

// doComplete marks an item as purchased
func doComplete(ctx context.Context, sess *session.Session, listName, itemArg string, cfg *Config, stdout io.Writer, jsonOutput bool) error {
	it, err := resolveItemArg(ctx, sess, listName, itemArg, "complete", cfg, stdout)
	if err != nil {
		return err
	}
	if it == nil {
		return announceCancelled(cfg, stdout)
	}

	if err := sess.CompleteItem(ctx, listName, it.Name); err != nil {
		return wrapServiceError(err)
	}

	if jsonOutput {
		return outputJSON(actionResponse{
			Action: "complete",
			List:   displayListName(ctx, sess, listName),
			Item:   itemJSON{Name: it.Name, Specification: it.Specification},
			Result: ResultActionCompleted,
		}, stdout)
	}

	_, _ = fmt.Fprintf(stdout, "Completed item: %s\n", it.Name)

	if cfg != nil && cfg.NoPrompt {
		_, _ = fmt.Fprintln(stdout, ResultActionCompleted)
	}
	return nil
}

// resolveItemArg turns an item argument into a concrete list entry. An
// empty argument opens an interactive picker over the whole list. Returns
// nil without error when the user cancelled.
func resolveItemArg(ctx context.Context, sess *session.Session, listName, itemArg, action string, cfg *Config, stdout io.Writer) (*service.Item, error) {
	var it *service.Item
	var err error

	if itemArg == "" {
		it, err = pickItem(ctx, sess, listName, action, cfg, stdout)
	} else {
		it, err = findItem(ctx, sess, listName, itemArg, cfg, stdout)
	}

	if err != nil {
		if errors.Is(err, prompt.ErrSelectionCancelled) {
			return nil, nil
		}
		if errors.Is(err, prompt.ErrNoPromptMode) {
			return nil, utils.WrapWithSuggestion(err,
				fmt.Sprintf("Name the item, e.g. 'bring %s Milk'", action))
		}
		return nil, err
	}
	return it, nil
}

// announceCancelled reports a cancelled interactive selection
func announceCancelled(cfg *Config, stdout io.Writer) error {
	_, _ = fmt.Fprintln(stdout, "Cancelled.")
	if cfg != nil && cfg.NoPrompt {
		_, _ = fmt.Fprintln(stdout, ResultInfoOnly)
	}
	return nil
}

// pickItem opens an interactive picker over all open items of the list
func pickItem(ctx context.Context, sess *session.Session, listName, action string, cfg *Config, stdout io.Writer) (*service.Item, error) {
	contents, err := sess.Items(ctx, listName)
	if err != nil {
		return nil, wrapServiceError(err)
	}

	selector := prompt.ItemSelector{
		Items:    contents.ToBuy,
		Prompt:   fmt.Sprintf("Select item to %s", action),
		Reader:   stdinOf(cfg),
		Writer:   stdout,
		NoPrompt: cfg.NoPrompt,
	}
	return selector.Run()
}

// findItem searches for an open item by name using exact then partial
// matching. Multiple partial matches open an interactive picker, or fail
// in no-prompt mode.
func findItem(ctx context.Context, sess *session.Session, listName, searchTerm string, cfg *Config, stdout io.Writer) (*service.Item, error) {
	contents, err := sess.Items(ctx, listName)
	if err != nil {
		return nil, wrapServiceError(err)
	}

	// First try exact match (case-insensitive)
	for _, it := range contents.ToBuy {
		if strings.EqualFold(it.Name, searchTerm) {
			item := it
			return &item, nil
		}
	}

	// Then try partial match (case-insensitive)
	searchLower := strings.ToLower(searchTerm)
	var matches []service.Item
	for _, it := range contents.ToBuy {
		if strings.Contains(strings.ToLower(it.Name), searchLower) {
			matches = append(matches, it)
		}
	}

	if len(matches) == 0 {
		return nil, fmt.Errorf("no item found matching '%s'", searchTerm)
	}
	if len(matches) == 1 {
		return &matches[0], nil
	}

	// Multiple matches - error in no-prompt mode
	if cfg != nil && cfg.NoPrompt {
		var names []string
		for _, m := range matches {
			names = append(names, fmt.Sprintf("  - %s", m.Name))
		}
		return nil, fmt.Errorf("multiple items match '%s':\n%s", searchTerm, strings.Join(names, "\n"))
	}

	selector := prompt.ItemSelector{
		Items:  matches,
		Prompt: fmt.Sprintf("Multiple items match '%s'", searchTerm),
		Reader: stdinOf(cfg),
		Writer: stdout,
	}
	return selector.Run()
}

// =============================================================================
// remove
// =============================================================================

// newRemoveCmd creates the 'remove' subcommand
func newRemoveCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "remove [list] [item]",
		Short: "Remove an item from a list",
		Long:  "Remove an item from the purchase list without marking it as purchased.\nAsks for confirmation unless prompts are disabled.",
		Args:  cobra.RangeArgs(0, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fileCfg, jsonOutput, err := setupCommand(cmd, cfg)
			if err != nil {
				return err
			}

			listName, itemArg := parseListItemArgs(args)
			if listName != "" {
				if err := utils.ValidateListName(listName); err != nil {
					return err
				}
			}

			ctx := context.Background()
			sess, _, err := getSession(ctx, cfg, fileCfg)
			if err != nil {
				return err
			}
			defer func() { _ = sess.Close() }()

			return doRemove(ctx, sess, listName, itemArg, cfg, stdout, jsonOutput)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

// doRemove removes an item after confirmation
func doRemove(ctx context.Context, sess *session.Session, listName, itemArg string, cfg *Config, stdout io.Writer, jsonOutput bool) error {
	it, err := resolveItemArg(ctx, sess, listName, itemArg, "remove", cfg, stdout)
	if err != nil {
		return err
	}
	if it == nil {
		return announceCancelled(cfg, stdout)
	}

	// Removal is destructive on the shared list, confirm in interactive mode
	if cfg == nil || !cfg.NoPrompt {
		ok := utils.PromptYesNoWithReader(
			fmt.Sprintf("Remove '%s' from the list?", it.Name),
			stdinOf(cfg), stdout)
		if !ok {
			return announceCancelled(cfg, stdout)
		}
	}

	if err := sess.RemoveItem(ctx, listName, it.Name); err != nil {
		return wrapServiceError(err)
	}

	if jsonOutput {
		return outputJSON(actionResponse{
			Action: "remove",
			List:   displayListName(ctx, sess, listName),
			Item:   itemJSON{Name: it.Name, Specification: it.Specification},
			Result: ResultActionCompleted,
		}, stdout)
	}

	_, _ = fmt.Fprintf(stdout, "Removed item: %s\n", it.Name)

	if cfg != nil && cfg.NoPrompt {
		_, _ = fmt.Fprintln(stdout, ResultActionCompleted)
	}
	return nil
}

// =============================================================================
// batch
// =============================================================================

// newBatchCmd creates the 'batch' subcommand
func newBatchCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "batch <list> <item>...",
		Short: "Add several items in one request",
		Long:  "Add multiple items to a list in a single request. Items may carry a\nspecification after a colon, e.g. \"Milk: 1 liter\".",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fileCfg, jsonOutput, err := setupCommand(cmd, cfg)
			if err != nil {
				return err
			}

			listName := args[0]
			if err := utils.ValidateListName(listName); err != nil {
				return err
			}

			ctx := context.Background()
			sess, _, err := getSession(ctx, cfg, fileCfg)
			if err != nil {
				return err
			}
			defer func() { _ = sess.Close() }()

			return doBatch(ctx, sess, listName, args[1:], cfg, stdout, jsonOutput)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

// doBatch adds multiple items in one request
func doBatch(ctx context.Context, sess *session.Session, listName string, rawItems []string, cfg *Config, stdout io.Writer, jsonOutput bool) error {
	items := make([]service.ItemInput, 0, len(rawItems))
	for _, raw := range rawItems {
		name, spec := splitItemArg(raw)
		if err := utils.ValidateItemName(name); err != nil {
			return err
		}
		items = append(items, service.ItemInput{Name: name, Specification: spec})
	}

	if err := sess.AddItems(ctx, listName, items); err != nil {
		return wrapServiceError(err)
	}

	name := displayListName(ctx, sess, listName)

	if jsonOutput {
		jsonItems := make([]itemJSON, 0, len(items))
		for _, it := range items {
			jsonItems = append(jsonItems, itemJSON{Name: it.Name, Specification: it.Specification})
		}
		return outputJSON(batchResponse{
			Action: "batch-add",
			List:   name,
			Items:  jsonItems,
			Count:  len(jsonItems),
			Result: ResultActionCompleted,
		}, stdout)
	}

	_, _ = fmt.Fprintf(stdout, "Added %d items to '%s'\n", len(items), name)
	for _, it := range items {
		_, _ = fmt.Fprintf(stdout, "  - %s\n", formatItem(service.Item(it)))
	}

	if cfg != nil && cfg.NoPrompt {
		_, _ = fmt.Fprintln(stdout, ResultActionCompleted)
	}
	return nil
}

// =============================================================================
// user
// =============================================================================

// newUserCmd creates the 'user' subcommand
func newUserCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "user",
		Short: "Show account information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fileCfg, jsonOutput, err := setupCommand(cmd, cfg)
			if err != nil {
				return err
			}

			ctx := context.Background()
			sess, email, err := getSession(ctx, cfg, fileCfg)
			if err != nil {
				return err
			}
			defer func() { _ = sess.Close() }()

			return doUser(ctx, sess, email, cfg, stdout, jsonOutput)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

// doUser displays the signed-in account and its list count
func doUser(ctx context.Context, sess *session.Session, email string, cfg *Config, stdout io.Writer, jsonOutput bool) error {
	lists, err := sess.FetchCatalog(ctx, false)
	if err != nil {
		return wrapServiceError(err)
	}

	if jsonOutput {
		return outputJSON(accountResponse{
			Email:  email,
			Lists:  len(lists),
			Result: ResultInfoOnly,
		}, stdout)
	}

	display := email
	if display == "" {
		display = "(unknown)"
	}
	_, _ = fmt.Fprintf(stdout, "Account: %s\n", display)
	_, _ = fmt.Fprintf(stdout, "Lists:   %d\n", len(lists))

	if cfg != nil && cfg.NoPrompt {
		_, _ = fmt.Fprintln(stdout, ResultInfoOnly)
	}
	return nil
}

// =============================================================================
// version
// =============================================================================

// newVersionCmd creates the 'version' subcommand
func newVersionCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			noPrompt := cfg.NoPrompt
			if flagNoPrompt, _ := cmd.Flags().GetBool("no-prompt"); flagNoPrompt {
				noPrompt = true
			}
			short, _ := cmd.Flags().GetBool("short")
			jsonOutput, _ := cmd.Flags().GetBool("json")
			return doVersion(short, noPrompt, stdout, jsonOutput)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Flags().Bool("short", false, "Print only the version number")
	return cmd
}

// doVersion prints build information
func doVersion(short, noPrompt bool, stdout io.Writer, jsonOutput bool) error {
	if short {
		_, _ = fmt.Fprintln(stdout, Version)
		return nil
	}

	if jsonOutput {
		type versionJSON struct {
			Version string `json:"version"`
			Commit  string `json:"commit"`
			Built   string `json:"built"`
			Go      string `json:"go"`
			Result  string `json:"result"`
		}
		return outputJSON(versionJSON{
			Version: Version,
			Commit:  Commit,
			Built:   BuildDate,
			Go:      runtime.Version(),
			Result:  ResultInfoOnly,
		}, stdout)
	}

	_, _ = fmt.Fprintf(stdout, "Version: %s\n", Version)
	_, _ = fmt.Fprintf(stdout, "Commit:  %s\n", Commit)
	_, _ = fmt.Fprintf(stdout, "Built:   %s\n", BuildDate)
	_, _ = fmt.Fprintf(stdout, "Go:      %s\n", runtime.Version())

	if noPrompt {
		_, _ = fmt.Fprintln(stdout, ResultInfoOnly)
	}
	return nil
}

// =============================================================================
// credentials
// =============================================================================

// newCredentialsCmd creates the 'credentials' subcommand for credential management
func newCredentialsCmd(stdout, stderr io.Writer, cfg *Config) *cobra.Command {
	credentialsCmd := &cobra.Command{
		Use:   "credentials",
		Short: "Manage the Bring! account password",
		Long:  "Store, retrieve, and manage the account password securely in the system keyring.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	credentialsCmd.AddCommand(newCredentialsSetCmd(stdout, stderr, cfg))
	credentialsCmd.AddCommand(newCredentialsGetCmd(stdout, stderr, cfg))
	credentialsCmd.AddCommand(newCredentialsDeleteCmd(stdout, stderr, cfg))
	credentialsCmd.AddCommand(newCredentialsListCmd(stdout, stderr, cfg))

	return credentialsCmd
}

// credentialsHandler builds the CLI handler shared by the credentials subcommands
func credentialsHandler(cmd *cobra.Command, cfg *Config, stdout, stderr io.Writer) (*credentials.CLIHandler, *config.Config, error) {
	fileCfg, _, err := setupCommand(cmd, cfg)
	if err != nil {
		return nil, nil, err
	}

	manager := newCredentialsManager(cfg, fileCfg)
	handler := credentials.NewCLIHandler(manager, stdinOf(cfg), stdout, stderr).
		WithTerminal(credentials.NewTerminalReader())
	return handler, fileCfg, nil
}

// credentialsEmailArg resolves the optional email argument against the
// environment and the config file.
func credentialsEmailArg(args []string, fileCfg *config.Config) string {
	if len(args) > 0 {
		return args[0]
	}
	return credentials.ResolveEmail(fileCfg.Credentials.Email)
}

// newCredentialsSetCmd creates the 'credentials set' subcommand
func newCredentialsSetCmd(stdout, stderr io.Writer, cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <email>",
		Short: "Store the account password in the system keyring",
		Long:  "Store the password for the Bring! account securely in the system keyring (macOS Keychain, Windows Credential Manager, or Linux Secret Service).",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			promptFlag, _ := cmd.Flags().GetBool("prompt")

			handler, _, err := credentialsHandler(cmd, cfg, stdout, stderr)
			if err != nil {
				return err
			}
			return handler.Set(args[0], promptFlag)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Flags().Bool("prompt", false, "Prompt for password input (required for security)")
	return cmd
}

// newCredentialsGetCmd creates the 'credentials get' subcommand
func newCredentialsGetCmd(stdout, stderr io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "get [email]",
		Short: "Show where the password comes from",
		Long:  "Check the credential priority chain (keyring, then environment) and display the source. Without an argument the configured account is checked.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOutput, _ := cmd.Flags().GetBool("json")

			handler, fileCfg, err := credentialsHandler(cmd, cfg, stdout, stderr)
			if err != nil {
				return err
			}
			return handler.Get(credentialsEmailArg(args, fileCfg), jsonOutput)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

// newCredentialsDeleteCmd creates the 'credentials delete' subcommand
func newCredentialsDeleteCmd(stdout, stderr io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "delete [email]",
		Short: "Remove the password from the system keyring",
		Long:  "Remove the stored password from the system keyring. Environment variables are not affected.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			handler, fileCfg, err := credentialsHandler(cmd, cfg, stdout, stderr)
			if err != nil {
				return err
			}
			return handler.Delete(credentialsEmailArg(args, fileCfg))
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

// newCredentialsListCmd creates the 'credentials list' subcommand
func newCredentialsListCmd(stdout, stderr io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the account and its credential status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOutput, _ := cmd.Flags().GetBool("json")

			handler, fileCfg, err := credentialsHandler(cmd, cfg, stdout, stderr)
			if err != nil {
				return err
			}
			return handler.List(credentials.ResolveEmail(fileCfg.Credentials.Email), jsonOutput)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

// =============================================================================
// tui
// =============================================================================

// newTuiCmd creates the 'tui' subcommand
func newTuiCmd(stdout, stderr io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Browse shopping lists in a terminal UI",
		Long:  "Open an interactive two-pane browser over the account's shopping lists.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fileCfg, _, err := setupCommand(cmd, cfg)
			if err != nil {
				return err
			}

			ctx := context.Background()
			sess, _, err := getSession(ctx, cfg, fileCfg)
			if err != nil {
				return err
			}

			// The shutdown manager owns the session so the connection is
			// closed on signals as well as on normal exit.
			sm := shutdown.NewManager()
			sm.HandleSignals()
			sm.RegisterCleanup("close-session", func(ctx context.Context) error {
				return sess.Close()
			})
			defer func() {
				sm.Shutdown()
				waitCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = sm.Wait(waitCtx)
			}()

			model := tui.New(sess)
			p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(sm.Context()))
			if _, err := p.Run(); err != nil && !sm.IsShutdown() {
				return err
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}
