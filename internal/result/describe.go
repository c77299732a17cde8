package result

import (
	"fmt"
	"strings"

	"github.com/jatin-wig/Brain-Tumor-Detection/internal/model"
)

const Disclaimer = "Medical Disclaimer: This AI tool is for research and educational purposes only."

const unknownColor = "#000"

// Description is the static display copy for one label.
type Description struct {
	Label    model.Label `json:"label"`
	Title    string      `json:"title"`
	Color    string      `json:"color"`
	Tumor    bool        `json:"tumor"`
	Headline string      `json:"headline"`
	Message  string      `json:"message"`
	Facts    []string    `json:"facts"`
}

var descriptions = map[model.Label]Description{
	"glioma": {
		Title: "Glioma Tumor",
		Color: "#EA4335",
		Facts: []string{
			"Most common type of primary brain tumor",
			"Arises from glial cells that support nerve cells",
			"Can range from low-grade to high-grade",
		},
	},
	"meningioma": {
		Title: "Meningioma Tumor",
		Color: "#FBBC05",
		Facts: []string{
			"Typically benign and slow-growing",
			"Develops from meninges",
		},
	},
	"pituitary": {
		Title: "Pituitary Tumor",
		Color: "#4285F4",
		Facts: []string{
			"Affects hormone regulation",
			"Mostly benign",
		},
	},
	"notumor": {
		Title: "No Tumor Detected",
		Color: "#34A853",
		Facts: []string{
			"No tumor patterns detected",
		},
	},
}

// Describe returns the display copy for l. Labels without an entry get a
// neutral description, so a retrained model with new classes still renders.
// The negative label of the set always renders as "no tumor".
func Describe(l model.Label, labels model.LabelSet) Description {
	d, ok := descriptions[l]
	if !ok {
		d = Description{Title: capitalize(string(l)), Color: unknownColor}
	}
	d.Label = l
	d.Tumor = !labels.IsNegative(l)
	d.Facts = append([]string(nil), d.Facts...)
	if d.Tumor {
		d.Headline = fmt.Sprintf("Potential Tumor Detected: %s", capitalize(string(l)))
		d.Message = "Please consult a medical professional for further evaluation."
	} else {
		d.Headline = "No Tumor Detected!"
		d.Message = "Your MRI scan shows no signs of brain tumors."
	}
	return d
}

// DescribeAll returns descriptions in label order.
func DescribeAll(labels model.LabelSet) []Description {
	out := make([]Description, 0, labels.Len())
	for _, e := range labels.Entries() {
		out = append(out, Describe(e.Label, labels))
	}
	return out
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
