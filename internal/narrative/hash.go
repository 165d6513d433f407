package narrative

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"

	"github.com/danielpatrickdp/home-focus/go-core/internal/signals"
)

// ContextHash returns a canonical sha256 of ctx. System order does not matter.
// Uses a line-oriented canonical string, not JSON, so field order is fixed.
func ContextHash(ctx signals.NarrativeContext) string {
	systems := append([]signals.SystemSignal(nil), ctx.Systems...)
	sort.Slice(systems, func(i, j int) bool { return systems[i].Key < systems[j].Key })

	var b strings.Builder
	b.WriteString("score=" + num(ctx.OverallScore))
	b.WriteString("|overdue=" + strconv.FormatBool(ctx.HasOverdueMaintenance))
	b.WriteString("|changed=" + strconv.FormatBool(ctx.HasChangedSinceLastVisit))
	b.WriteString("|new=" + strconv.FormatBool(ctx.IsNewUser))
	for _, s := range systems {
		b.WriteString("\n")
		b.WriteString(s.Key)
		b.WriteString("|" + string(s.Risk))
		b.WriteString("|" + num(s.Confidence))
		b.WriteString("|" + optNum(s.MonthsToPlanning))
		b.WriteString("|" + optNum(s.ReplacementCost))
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func optNum(v *float64) string {
	if v == nil {
		return "-"
	}
	return num(*v)
}
