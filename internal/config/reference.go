package config

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// DailyValues are the ANVISA reference daily intake values a nutrition label
// expresses its %DV against. Trans fat carries no reference value and is
// labeled without a percentage.
type DailyValues struct {
	EnergyKcal    decimal.Decimal
	ProteinG      decimal.Decimal
	CarbG         decimal.Decimal
	LipidG        decimal.Decimal
	SaturatedFatG decimal.Decimal
	FiberG        decimal.Decimal
	SodiumMG      decimal.Decimal
}

// DefaultDailyValues returns the ANVISA RDC 360/2003 table.
func DefaultDailyValues() DailyValues {
	return DailyValues{
		EnergyKcal:    decimal.NewFromInt(2000),
		ProteinG:      decimal.NewFromInt(75),
		CarbG:         decimal.NewFromInt(300),
		LipidG:        decimal.NewFromInt(55),
		SaturatedFatG: decimal.NewFromInt(22),
		FiberG:        decimal.NewFromInt(25),
		SodiumMG:      decimal.NewFromInt(2400),
	}
}

// LoadDailyValues reads an optional reference.yml override. Absent a file the
// compiled-in ANVISA table applies unchanged.
func LoadDailyValues() (DailyValues, error) {
	v := viper.New()

	v.SetConfigName("reference")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/radar/config")
	v.AddConfigPath("/etc/radar")
	v.AddConfigPath(".")

	v.SetEnvPrefix("RADAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	values := DefaultDailyValues()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return DailyValues{}, err
		}
		return values, nil
	}

	overrides := map[string]*decimal.Decimal{
		"daily_values.energy_kcal":     &values.EnergyKcal,
		"daily_values.protein_g":       &values.ProteinG,
		"daily_values.carb_g":          &values.CarbG,
		"daily_values.lipid_g":         &values.LipidG,
		"daily_values.saturated_fat_g": &values.SaturatedFatG,
		"daily_values.fiber_g":         &values.FiberG,
		"daily_values.sodium_mg":       &values.SodiumMG,
	}
	for key, target := range overrides {
		if !v.IsSet(key) {
			continue
		}
		*target = decimal.NewFromFloat(v.GetFloat64(key))
	}

	if err := validateDailyValues(values); err != nil {
		return DailyValues{}, err
	}
	return values, nil
}

func validateDailyValues(values DailyValues) error {
	all := []decimal.Decimal{
		values.EnergyKcal, values.ProteinG, values.CarbG, values.LipidG,
		values.SaturatedFatG, values.FiberG, values.SodiumMG,
	}
	for _, value := range all {
		if !value.IsPositive() {
			return errors.New("daily values must be positive")
		}
	}
	return nil
}
