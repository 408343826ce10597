package filters

import (
	"fmt"

	"github.com/ironsheep/image-filters-mcp/internal/integral"
)

// Params holds optional mean filter overrides in the textual form used by
// tool arguments and command-line flags. Nil pointers and empty strings keep
// the preset value.
type Params struct {
	Scale            *int
	Radius           *int
	Normalization    string
	ChannelMode      string
	IntensityChannel string
	ZeroRadius       string
}

// IsZero reports whether no override is set.
func (p Params) IsZero() bool {
	return p.Scale == nil && p.Radius == nil && p.Normalization == "" &&
		p.ChannelMode == "" && p.IntensityChannel == "" && p.ZeroRadius == ""
}

// Apply returns opts with every set override parsed and applied.
func (p Params) Apply(opts MeanOptions) (MeanOptions, error) {
	if p.Scale != nil {
		opts.Scale = *p.Scale
	}
	if p.Radius != nil {
		opts.Radius = *p.Radius
	}
	if p.Normalization != "" {
		n, err := ParseNormalization(p.Normalization)
		if err != nil {
			return opts, err
		}
		opts.Normalization = n
	}
	if p.ChannelMode != "" {
		m, err := ParseChannelMode(p.ChannelMode)
		if err != nil {
			return opts, err
		}
		opts.ChannelMode = m
	}
	if p.IntensityChannel != "" {
		ch, err := integral.ParseChannel(p.IntensityChannel)
		if err != nil {
			return opts, err
		}
		opts.IntensityChannel = ch
	}
	if p.ZeroRadius != "" {
		z, err := ParseZeroRadiusPolicy(p.ZeroRadius)
		if err != nil {
			return opts, err
		}
		opts.ZeroRadius = z
	}
	return opts, nil
}

// NewWithParams is New for callers that may carry mean filter overrides.
// Overrides are only accepted by adaptive-mean-filter and mean-filter.
func NewWithParams(name string, p Params) (ImageFilter, error) {
	if p.IsZero() {
		return New(name)
	}

	var opts MeanOptions
	switch name {
	case AdaptiveMean:
		opts = AdaptiveMeanOptions()
	case Mean:
		opts = FixedMeanOptions()
	default:
		if _, err := New(name); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("filter %s does not accept mean filter options", name)
	}

	opts, err := p.Apply(opts)
	if err != nil {
		return nil, err
	}
	f, err := NewMean(opts)
	if err != nil {
		return nil, err
	}
	return f, nil
}
