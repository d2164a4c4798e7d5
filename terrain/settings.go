package terrain

import "math"

// Limits applied by Settings.Normalize.
const (
	MaxPatchResolution  = 128
	MinPatchResolution  = 2
	MaxSubdivisionLimit = 12
)

// Settings configures one planet's streamer.
type Settings struct {
	LODTargetDistances         []float64 `yaml:"lod_target_distances"`
	ReferenceRadius            float64   `yaml:"reference_radius"`
	BacksideCullDot            float64   `yaml:"backside_cull_dot"`
	PlayerCloseRange           float64   `yaml:"player_close_range"`
	ColliderActivationDistance float64   `yaml:"collider_activation_distance"`
	ColliderSubdivision        int       `yaml:"collider_subdivision"`
	PatchResolution            int       `yaml:"patch_resolution"`
	MaxSubdivision             int       `yaml:"max_subdivision"`
}

// DefaultSettings returns the stock streaming parameters.
func DefaultSettings() Settings {
	return Settings{
		LODTargetDistances:         []float64{6000, 3000, 1500, 750, 350},
		ReferenceRadius:            6000,
		BacksideCullDot:            -0.2,
		PlayerCloseRange:           200,
		ColliderActivationDistance: 60,
		ColliderSubdivision:        4,
		PatchResolution:            48,
		MaxSubdivision:             4,
	}
}

// Normalize clamps resolution and depth and pads the LOD table so every
// level up to MaxSubdivision has a distance. Missing entries halve from the
// first one, or from 20 body radii when the table is empty, never dropping
// below 10.
func (s Settings) Normalize(bodyRadius float64) Settings {
	s.PatchResolution = clampInt(s.PatchResolution, MinPatchResolution, MaxPatchResolution)
	s.MaxSubdivision = clampInt(s.MaxSubdivision, 0, MaxSubdivisionLimit)
	s.ColliderSubdivision = clampInt(s.ColliderSubdivision, 0, s.MaxSubdivision)
	if s.ReferenceRadius <= 0 {
		s.ReferenceRadius = 6000
	}

	required := s.MaxSubdivision + 1
	if len(s.LODTargetDistances) < required {
		base := bodyRadius * 20
		if len(s.LODTargetDistances) > 0 {
			base = s.LODTargetDistances[0]
		}
		table := make([]float64, required)
		for i := range table {
			if i < len(s.LODTargetDistances) {
				table[i] = s.LODTargetDistances[i]
			} else {
				table[i] = math.Max(10, base/math.Pow(2, float64(i)))
			}
		}
		s.LODTargetDistances = table
	} else {
		s.LODTargetDistances = append([]float64(nil), s.LODTargetDistances...)
	}
	return s
}

// LODDistance returns the split distance for a level on a body of the given
// radius.
func (s Settings) LODDistance(level int, bodyRadius float64) float64 {
	i := clampInt(level, 0, len(s.LODTargetDistances)-1)
	return s.LODTargetDistances[i] * math.Max(bodyRadius, 1) / s.ReferenceRadius
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
