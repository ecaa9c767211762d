package coach

import (
	"fmt"
	"strings"

	"baristalog/internal/models"
)

// Instructions is the fixed persona handed to the text generator with every prompt.
const Instructions = "You are an expert barista coach. Analyze the espresso extraction data and provide a brief, " +
	"friendly 2-3 sentence summary. Include what went well and one key tip for improvement. " +
	"Be concise and encouraging. Ideal espresso: ratio ~1:2, time 25-35 seconds."

// historyContext is how many same-bean shots are appended to a prompt.
const historyContext = 2

// BuildPrompt describes target for the coach and appends up to two earlier
// shots of the same bean, taken in the order history is given.
func BuildPrompt(target *models.Extraction, history []*models.Extraction) string {
	var b strings.Builder

	b.WriteString("Analyze this shot:\n")

	beanName := "Unknown"
	if target.Bean != nil {
		beanName = target.Bean.Name
	}
	fmt.Fprintf(&b, "Bean: %s\n", beanName)
	fmt.Fprintf(&b, "Grind: %s\n", target.GrindSetting)

	if target.DoseIn != nil {
		fmt.Fprintf(&b, "Dose: %.1fg\n", *target.DoseIn)
	}
	if target.YieldOut != nil {
		fmt.Fprintf(&b, "Yield: %.1fg\n", *target.YieldOut)
	}
	if ratio, ok := target.Ratio(); ok {
		fmt.Fprintf(&b, "Ratio: 1:%.1f\n", ratio)
	}
	if target.TimeSeconds != nil {
		fmt.Fprintf(&b, "Time: %ds\n", int(*target.TimeSeconds))
	}
	if target.Notes != nil && *target.Notes != "" {
		fmt.Fprintf(&b, "Notes: %s\n", *target.Notes)
	}

	relevant := sameBean(target, history)
	if len(relevant) > 0 {
		b.WriteString("\nRecent shots with same bean: ")
		for _, prev := range relevant {
			fmt.Fprintf(&b, "Grind %s", prev.GrindSetting)
			if prev.TimeSeconds != nil {
				fmt.Fprintf(&b, " / %ds", int(*prev.TimeSeconds))
			}
			b.WriteString("; ")
		}
	}

	return b.String()
}

// sameBean returns the first historyContext entries whose bean name equals
// the target's. Two shots without a bean count as the same bean.
func sameBean(target *models.Extraction, history []*models.Extraction) []*models.Extraction {
	var out []*models.Extraction
	for _, e := range history {
		if len(out) == historyContext {
			break
		}
		if e == nil || e.RKey != "" && e.RKey == target.RKey {
			continue
		}
		if (e.Bean == nil) != (target.Bean == nil) {
			continue
		}
		if e.Bean != nil && e.Bean.Name != target.Bean.Name {
			continue
		}
		out = append(out, e)
	}
	return out
}
