package image

import (
	"fmt"
	"strings"

	"batchgen/internal/batch"
)

// DefaultNegativePrompt captures artefacts the model should avoid.
const DefaultNegativePrompt = "low quality, blurry, distorted, incorrect anatomy, extra limbs, text artefacts, watermark"

// BuildVariationPrompt turns an item's resolved selectors and the job prompt
// into an instruction for an image-to-image model.
func BuildVariationPrompt(req batch.GenerateRequest) string {
	p := req.Prompt
	sel := req.Selectors
	var lines []string

	subject := strings.TrimSpace(p.Subject)
	if subject == "" {
		subject = "the pet in the photo"
	}
	lines = append(lines, fmt.Sprintf("Create a new portrait of %s based on the attached photo.", strings.TrimSuffix(subject, ".")))
	lines = append(lines, "Keep the pose, framing and personality of the original.")

	if b := sel.Breed; b != nil {
		line := fmt.Sprintf("Depict the animal as a %s", b.Name)
		if species := strings.TrimSpace(b.Species); species != "" {
			line += fmt.Sprintf(" (%s)", species)
		}
		line += "."
		if desc := strings.TrimSpace(b.Description); desc != "" {
			line += " " + strings.TrimSuffix(desc, ".") + "."
		}
		lines = append(lines, line)
	}
	if c := sel.Coat; c != nil {
		line := fmt.Sprintf("Give it a %s coat", strings.ToLower(c.Name))
		if pattern := strings.TrimSpace(c.Pattern); pattern != "" {
			line += fmt.Sprintf(" with a %s pattern", strings.ToLower(pattern))
		}
		lines = append(lines, line+".")
	}
	if s := sel.Style; s != nil {
		if prompt := strings.TrimSpace(s.Prompt); prompt != "" {
			lines = append(lines, fmt.Sprintf("Render it in %s style: %s.", s.Name, strings.TrimSuffix(prompt, ".")))
		} else {
			lines = append(lines, fmt.Sprintf("Render it in %s style.", s.Name))
		}
	}

	if instr := strings.TrimSpace(p.Instructions); instr != "" {
		lines = append(lines, fmt.Sprintf("Additional guidance: %s.", strings.TrimSuffix(instr, ".")))
	}
	if aspect := strings.TrimSpace(p.AspectRatio); aspect != "" {
		lines = append(lines, fmt.Sprintf("Aspect ratio: %s.", aspect))
	}

	negative := strings.TrimSpace(p.NegativePrompt)
	if negative == "" {
		negative = DefaultNegativePrompt
	}
	lines = append(lines, "Avoid: "+negative+".")

	return strings.Join(lines, "\n")
}
