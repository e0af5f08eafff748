package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"vaultScope/internal/config"
	"vaultScope/internal/feed"
	"vaultScope/internal/model"
	"vaultScope/internal/storage"
	"vaultScope/internal/timestamp"
	"vaultScope/internal/vaults"
)

func runShow(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadShow(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	events, stats, err := storage.ReadEventsFile(cfg.In, func(line int, err error) {
		logger.Warn("skip event line", zap.Int("line", line), zap.Error(err))
	})
	if err != nil {
		return err
	}
	names, err := storage.ReadStrategyNames(storage.NamesPath(cfg.In))
	if err != nil {
		return err
	}

	query := feed.ViewQuery{
		Mode:             feed.ViewMode(cfg.View),
		Vault:            cfg.Vault,
		ChainID:          cfg.ChainID,
		ShowRedundant:    cfg.ShowRedundant,
		LimitPerCategory: cfg.LimitPerCategory,
		Page:             cfg.Page,
		PageSize:         cfg.PageSize,
	}
	if t := strings.TrimSpace(cfg.Type); t != "" && t != "all" {
		if query.Type, err = model.ParseEventType(t); err != nil {
			return err
		}
	}

	registry := vaults.Default()
	page := feed.Apply(archivedFeed(events), query, registry)

	logger.Debug("show",
		zap.String("in", cfg.In),
		zap.Int("lines", stats.Total),
		zap.Int("decoded", stats.Decoded),
		zap.Int("failed", stats.Failed),
		zap.Int("matched", page.Total),
		zap.Int("strategy_names", len(names)),
	)

	if cfg.Format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(page)
	}
	return writeTable(os.Stdout, page, registry, names)
}

// archivedFeed folds an archive that may hold the same event from several
// fetch runs into one newest-first copy per id.
func archivedFeed(events []model.Event) []model.Event {
	return feed.NewestFirst(feed.MergeIncremental(nil, events))
}

func writeTable(out io.Writer, page feed.Page, registry *vaults.Registry, names model.StrategyNames) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tCHAIN\tVAULT\tTYPE\tDETAIL\tTX")
	for _, e := range page.Events {
		h := e.Header()
		chainID, chainOK := model.ResolveChainID(e)
		vault, known := registry.Lookup(h.VaultAddress)
		vaultLabel := vaults.ShortAddress(h.VaultAddress)
		if known {
			vaultLabel = vault.Name
		}
		tx := vaults.ShortAddress(h.TransactionHash)
		if chainOK && h.TransactionHash != "" {
			tx = vaults.TxURL(chainID, h.TransactionHash)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			formatTime(string(h.BlockTimestamp)),
			vaults.ChainName(chainID),
			vaultLabel,
			e.Kind(),
			describe(e, vault, names, chainID),
			tx,
		)
	}
	fmt.Fprintf(tw, "\npage %d/%d, %d events\n", page.Page, page.TotalPages, page.Total)
	return tw.Flush()
}

func formatTime(raw string) string {
	secs, ok := timestamp.Seconds(raw)
	if !ok {
		return "-"
	}
	return time.Unix(secs, 0).UTC().Format("2006-01-02 15:04:05")
}

// describe summarizes an event's payload, formatting asset amounts with the
// vault's decimals when the vault is known. Strategies carry their resolved
// name when one was stored alongside the archive.
func describe(e model.Event, vault vaults.Vault, names model.StrategyNames, chainID int64) string {
	amount := func(raw string) string {
		if vault.Symbol == "" {
			return raw
		}
		return vaults.FormatUnits(raw, vault.Decimals) + " " + vault.Symbol
	}
	switch ev := e.(type) {
	case model.DepositEvent:
		return fmt.Sprintf("%s by %s", amount(ev.Assets), vaults.ShortAddress(ev.Owner))
	case model.WithdrawEvent:
		return fmt.Sprintf("%s to %s", amount(ev.Assets), vaults.ShortAddress(ev.Receiver))
	case model.TransferEvent:
		return fmt.Sprintf("%s shares %s -> %s", ev.Value, vaults.ShortAddress(ev.Sender), vaults.ShortAddress(ev.Receiver))
	case model.StrategyReportedEvent:
		return fmt.Sprintf("%s gain %s loss %s", strategyLabel(names, chainID, ev.Strategy), amount(ev.Gain), amount(ev.Loss))
	case model.DebtUpdatedEvent:
		delta := "?"
		if d := ev.DebtDelta(); d != nil {
			delta = amount(d.String())
		}
		return fmt.Sprintf("%s debt %s", strategyLabel(names, chainID, ev.Strategy), delta)
	case model.StrategyChangedEvent:
		return fmt.Sprintf("%s %s", strategyLabel(names, chainID, ev.Strategy), ev.ChangeType)
	case model.RoleSetEvent:
		return fmt.Sprintf("%s role %s", vaults.ShortAddress(ev.Account), ev.Role)
	default:
		return ""
	}
}

func strategyLabel(names model.StrategyNames, chainID int64, address string) string {
	short := vaults.ShortAddress(address)
	if name, ok := names.Lookup(chainID, address); ok {
		return name + " (" + short + ")"
	}
	return short
}
