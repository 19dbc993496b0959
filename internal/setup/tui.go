package setup

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/tickboard/config"
)

// DefaultFilename file the wizard writes to.
const DefaultFilename = "widgets.gen.yaml"

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)

	stepStyle = lipgloss.NewStyle().
			Foreground(special).
			Bold(true).
			MarginTop(1).
			MarginBottom(0)
)

// Answers choices collected by the wizard.
type Answers struct {
	Widgets       []string
	Interval      string
	Volatility    string
	Currency      string
	FlashDuration string
	HTTPAddr      string
}

// Apply narrows the fixture document to the chosen widgets and applies the
// market settings to every market widget. The result is validated.
func Apply(tmp config.ConfigTmp, a Answers) (config.ConfigTmp, error) {
	keep := make(map[string]struct{}, len(a.Widgets))
	for _, name := range a.Widgets {
		keep[name] = struct{}{}
	}

	var interval time.Duration
	if a.Interval != "" {
		d, err := time.ParseDuration(a.Interval)
		if err != nil {
			return config.ConfigTmp{}, fmt.Errorf("incorrect interval: %w", err)
		}
		interval = d
	}

	var volatility float64
	if a.Volatility != "" {
		v, err := strconv.ParseFloat(a.Volatility, 64)
		if err != nil {
			return config.ConfigTmp{}, fmt.Errorf("incorrect volatility: %w", err)
		}
		volatility = v
	}

	out := config.ConfigTmp{
		HTTPAddr:      tmp.HTTPAddr,
		FlashDuration: tmp.FlashDuration,
		RandomSeed:    tmp.RandomSeed,
	}
	if a.HTTPAddr != "" {
		out.HTTPAddr = a.HTTPAddr
	}
	if a.FlashDuration != "" {
		d, err := time.ParseDuration(a.FlashDuration)
		if err != nil {
			return config.ConfigTmp{}, fmt.Errorf("incorrect flash duration: %w", err)
		}
		out.FlashDuration = d
	}

	for _, w := range tmp.Widgets {
		if _, ok := keep[w.Name]; !ok {
			continue
		}
		// only the portfolio widget carries a currency, fx and gas stay plain
		if w.Kind == "market" && w.Currency != "" {
			if interval > 0 {
				w.Interval = interval
			}
			if a.Volatility != "" {
				w.Volatility = volatility
			}
			if a.Currency != "" {
				w.Currency = a.Currency
			}
		}
		out.Widgets = append(out.Widgets, w)
	}

	if _, err := config.Parse(out); err != nil {
		return config.ConfigTmp{}, err
	}
	return out, nil
}

// RunTUI launches the terminal configuration wizard and returns the written file.
func RunTUI() (string, error) {
	tmp, err := config.LoadTmp("")
	if err != nil {
		return "", err
	}

	var (
		widgetOptions []huh.Option[string]
		answers       = Answers{
			Interval:      "3s",
			Volatility:    "0.002",
			Currency:      "USD",
			FlashDuration: tmp.FlashDuration.String(),
			HTTPAddr:      tmp.HTTPAddr,
		}
		confirm bool
	)
	for _, w := range tmp.Widgets {
		widgetOptions = append(widgetOptions, huh.NewOption(fmt.Sprintf("%s (%s)", w.Name, w.Kind), w.Name).Selected(true))
	}

	// step 1: welcome and widgets
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("TICKBOARD CONFIG WIZARD"))
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Pick what your dashboard shows.\n"))

	fmt.Println(stepStyle.Render("STEP 1: WIDGETS"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Widgets to display").
				Options(widgetOptions...).
				Value(&answers.Widgets).
				Validate(func(s []string) error {
					if len(s) == 0 {
						return fmt.Errorf("choose at least one widget")
					}
					return nil
				}),
		),
	).Run()
	if err != nil {
		return "", err
	}

	// step 2: portfolio market
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("TICKBOARD CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 2: PORTFOLIO"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Tick interval").
				Description("Duration string (e.g. 1s, 2500ms, 3s)").
				Value(&answers.Interval).
				Validate(validateInterval),
			huh.NewInput().
				Title("Volatility").
				Description("Max relative move per tick, 0.002 is 0.2%").
				Value(&answers.Volatility).
				Validate(validateVolatility),
			huh.NewSelect[string]().
				Title("Display currency").
				Options(
					huh.NewOption("US Dollar", "USD"),
					huh.NewOption("Euro", "EUR"),
					huh.NewOption("British Pound", "GBP"),
				).
				Value(&answers.Currency),
		),
	).Run()
	if err != nil {
		return "", err
	}

	// step 3: presentation
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("TICKBOARD CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 3: PRESENTATION"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Flash duration").
				Description("How long a changed value stays highlighted").
				Value(&answers.FlashDuration).
				Validate(validateInterval),
			huh.NewInput().
				Title("HTTP address").
				Value(&answers.HTTPAddr),
		),
	).Run()
	if err != nil {
		return "", err
	}

	// confirmation
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("TICKBOARD CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("FINAL CONFIRMATION"))

	summary := fmt.Sprintf(
		"Widgets: %v\nInterval: %s\nVolatility: %s\nCurrency: %s\nFlash: %s\nAddress: %s\n",
		answers.Widgets, answers.Interval, answers.Volatility, answers.Currency, answers.FlashDuration, answers.HTTPAddr,
	)
	fmt.Println(lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(1).Render(summary))

	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save configuration?").
				Affirmative("Yes, save").
				Negative("No, exit").
				Value(&confirm),
		),
	).Run()
	if err != nil {
		return "", err
	}

	if !confirm {
		return "", fmt.Errorf("setup cancelled by user")
	}

	out, err := Apply(tmp, answers)
	if err != nil {
		return "", err
	}

	data, err := config.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("failed to generate yaml: %w", err)
	}

	if err := os.WriteFile(DefaultFilename, data, 0644); err != nil {
		return "", fmt.Errorf("failed to save config file: %w", err)
	}

	fmt.Println(lipgloss.NewStyle().Foreground(special).Render(fmt.Sprintf("\n✓ Configuration saved to %s", DefaultFilename)))
	return DefaultFilename, nil
}

func validateInterval(s string) error {
	d, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	if d <= 0 {
		return fmt.Errorf("must be positive")
	}
	return nil
}

func validateVolatility(s string) error {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("must be a valid number")
	}
	if d.IsNegative() || d.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("must be in [0, 1)")
	}
	return nil
}
