package roomle

import (
	"strings"

	"go.uber.org/zap"
)

type ChannelKind uint8

const (
	CHANNEL_UNRESOLVED ChannelKind = iota
	CHANNEL_CONSTANT
	CHANNEL_TEXTURED
)

func (k ChannelKind) String() string {
	switch k {
	case CHANNEL_CONSTANT:
		return "constant"
	case CHANNEL_TEXTURED:
		return "textured"
	default:
		return "unresolved"
	}
}

// PBRChannel 单个PBR通道的解析结果
type PBRChannel struct {
	Kind    ChannelKind
	Value   Value
	Image   *Image
	Mapping TextureMapping
	// Component is the packed source socket (Red, Green, Blue) of an ORM texture.
	Component string
	Rule      string
}

func Constant(v ...float64) PBRChannel {
	return PBRChannel{Kind: CHANNEL_CONSTANT, Value: Value(v)}
}

func Textured(img *Image, mapping TextureMapping, def ...float64) PBRChannel {
	return PBRChannel{Kind: CHANNEL_TEXTURED, Image: img, Mapping: mapping, Value: Value(def)}
}

func Unresolved(def ...float64) PBRChannel {
	return PBRChannel{Kind: CHANNEL_UNRESOLVED, Value: Value(def)}
}

func (c PBRChannel) IsTextured() bool {
	return c.Kind == CHANNEL_TEXTURED && c.Image != nil
}

// ScalarOr returns the carried scalar, or def when the channel carries none.
func (c PBRChannel) ScalarOr(def float64) float64 {
	if len(c.Value) == 0 {
		return def
	}
	return c.Value[0]
}

// SheenChannel comes from a velvet shader, not from a principled socket.
type SheenChannel struct {
	Color [3]float64
	Sigma float64
}

type channelContext struct {
	material string
	channel  string
	socket   *Socket
	used     *NodeSet
	log      *zap.Logger
}

// origin resolves the driving node of s; a rejected multi input socket
// counts as no match.
func (c *channelContext) origin(s *Socket) *ShaderNode {
	if s == nil {
		return nil
	}
	n, err := s.Origin()
	if err != nil {
		c.log.Debug("rule inapplicable",
			zap.String("material", c.material),
			zap.String("channel", c.channel),
			zap.Error(err))
		return nil
	}
	return n
}

type channelRule struct {
	name  string
	match func(c *channelContext) (PBRChannel, bool)
}

// resolveFirstUnique runs every rule. One match wins, none falls back, and
// several pick the first while reporting a warning.
func resolveFirstUnique(c *channelContext, rules []channelRule, fallback PBRChannel) (PBRChannel, string) {
	var matches []PBRChannel
	var names []string
	for _, r := range rules {
		ch, ok := r.match(c)
		if !ok {
			continue
		}
		ch.Rule = r.name
		matches = append(matches, ch)
		names = append(names, r.name)
	}
	switch len(matches) {
	case 0:
		if c.socket != nil && c.socket.Linked() {
			c.log.Warn("no channel rule matched, using default",
				zap.String("material", c.material),
				zap.String("channel", c.channel))
		}
		return fallback, ""
	case 1:
		return matches[0], ""
	}
	warning := c.channel + ": ambiguous channel match (" + strings.Join(names, ", ") + "), using " + names[0]
	c.log.Warn("ambiguous channel match",
		zap.String("material", c.material),
		zap.String("channel", c.channel),
		zap.Strings("rules", names))
	return matches[0], warning
}
