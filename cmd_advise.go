package main

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/zweiadr/gw2advisor/advisor"
	"github.com/zweiadr/gw2advisor/gw2api"
	"github.com/zweiadr/gw2advisor/inventory"
	"github.com/zweiadr/gw2advisor/messaging"
	"go.uber.org/zap"
)

var adviseCmd = &cobra.Command{
	Use:   "advise API_KEY [API_KEY...]",
	Short: "Load accounts once and print every advice section",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runAdvise(args)
	},
}

// consoleListener prints progress lines to stderr while the advice itself
// goes to stdout.
type consoleListener struct {
	messaging.NopListener
}

func (consoleListener) OnMessage(message string) {
	fmt.Fprintln(os.Stderr, message)
}

// sections maps rules to printed section headers, in presentation order.
var sections = map[string]string{
	inventory.RuleStacks:      "Restack",
	inventory.RuleCraft:       "Craft ingredients away",
	inventory.RuleGobble:      "Gobble",
	inventory.RuleVendor:      "Sell to vendor",
	inventory.RuleRareSalvage: "Rare salvage",
	inventory.RuleJustSalvage: "Salvage",
	inventory.RuleCraftLuck:   "Craft luck",
	inventory.RuleKarma:       "Karma",
	inventory.RulePlay:        "Play",
	inventory.RuleCurrency:    "Living story currencies",
	inventory.RuleJustDelete:  "Delete",
	inventory.RuleMisc:        "Misc",
}

func runAdvise(keys []string) {
	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := zap.NewNop()
	if cfg.Server.Debug {
		logger, _ = zap.NewDevelopment()
	}
	defer logger.Sync()

	msg := messaging.New()
	msg.AddListener(consoleListener{})

	svc := advisor.New(cfg, msg, logger)
	if err := svc.StartLoad(keys); err != nil {
		log.Fatalf("load: %v", err)
	}
	svc.Wait()

	if err := svc.LastError(); err != nil {
		var ite *gw2api.InvalidTokenError
		var mpe *gw2api.MissingPermissionError
		switch {
		case errors.As(err, &ite):
			log.Fatalf("API key is invalid")
		case errors.As(err, &mpe):
			log.Fatalf("API key is missing permission %q", mpe.Permission)
		default:
			log.Fatalf("load: %v", err)
		}
	}

	m := svc.Model()
	for _, rule := range inventory.RuleNames {
		printAdviceList(sections[rule], m.Advice(rule))
	}
}

func printAdviceList(name string, advices []inventory.ItemForDisplay) {
	fmt.Println("----------")
	fmt.Println(name)
	fmt.Println("----------")
	for _, entry := range advices {
		fmt.Println(entry.Item.Name)
		if entry.Advice != "" {
			fmt.Printf("\tAdvice: %s\n", entry.Advice)
		}
		fmt.Println("\tSources:")
		for _, src := range entry.Sources {
			fmt.Printf("\t\t%d %s@%s\n", src.Count, src.LocationName(), src.Account)
		}
	}
}
