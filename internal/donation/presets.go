package donation

import (
	"github.com/cap-blurr/AJEY-contracts/internal/token"
	"github.com/cap-blurr/AJEY-contracts/internal/types"
)

// Preset names a fixed weight triple applied to three recipients.
type Preset string

const (
	PresetBalanced     Preset = "BALANCED"     // 40/30/30
	PresetConcentrated Preset = "CONCENTRATED" // 60/20/20
	PresetUniform      Preset = "UNIFORM"      // 1/1/1
)

func (p Preset) String() string {
	return string(p)
}

var presetWeights = map[Preset][3]uint64{
	PresetBalanced:     {40, 30, 30},
	PresetConcentrated: {60, 20, 20},
	PresetUniform:      {1, 1, 1},
}

// ApplyPreset replaces the recipient list with the three given addresses
// weighted by the named preset.
func (l *Ledger) ApplyPreset(caller token.Address, preset Preset, addrs [3]token.Address) error {
	const op = "donation.applyPreset"
	weights, ok := presetWeights[preset]
	if !ok {
		return types.NewErrorf(types.KindPrecondition, op, "unknown preset %s", preset)
	}
	recipients := make([]Recipient, 0, len(addrs))
	for i, addr := range addrs {
		recipients = append(recipients, Recipient{
			Addr:   addr,
			Weight: weights[i],
			Active: true,
		})
	}
	return l.SetRecipients(caller, recipients)
}
