package render

import (
	"fmt"
	"strings"
)

// Scene class names the renderer is asked to build. The generated
// template defines SceneEducational; raw submitted scripts are
// expected to define SceneSolution.
const (
	SceneEducational = "EducationalVideo"
	SceneSolution    = "SolutionVideo"
)

// colorScheme holds the three colors a visual style maps to.
type colorScheme struct {
	Background string
	Primary    string
	Secondary  string
}

var colorSchemes = map[string]colorScheme{
	"minimal":      {Background: "#FFFFFF", Primary: "#000000", Secondary: "#666666"},
	"colorful":     {Background: "#1e1e2e", Primary: "#f38ba8", Secondary: "#89b4fa"},
	"professional": {Background: "#f8f9fa", Primary: "#212529", Secondary: "#495057"},
}

// TemplateParams are the request fields the generated scene embeds.
type TemplateParams struct {
	Topic  string
	Grade  int
	Course string
	Style  string
}

// defaultContent is the placeholder body used until upstream supplies
// generated scene content per topic.
const defaultContent = `
        equation = MathTex(r"a^2 + b^2 = c^2", font_size=48)
        self.play(Write(equation))
        self.wait(3)
`

// BuildEducationalScene generates a complete scene script for requests
// that did not carry their own. Unknown styles fall back to "minimal".
func BuildEducationalScene(p TemplateParams) string {
	colors, ok := colorSchemes[p.Style]
	if !ok {
		colors = colorSchemes["minimal"]
	}

	subtitle := fmt.Sprintf("Grade %d - %s", p.Grade, p.Course)

	var b strings.Builder
	b.WriteString("from manim import *\n\n")
	fmt.Fprintf(&b, "class %s(Scene):\n", SceneEducational)
	b.WriteString("    def construct(self):\n")
	fmt.Fprintf(&b, "        self.camera.background_color = %q\n\n", colors.Background)
	fmt.Fprintf(&b, "        title = Text(%q, font_size=48, color=%q)\n", p.Topic, colors.Primary)
	fmt.Fprintf(&b, "        subtitle = Text(%q, font_size=24, color=%q)\n\n", subtitle, colors.Secondary)
	b.WriteString("        title.to_edge(UP, buff=1)\n")
	b.WriteString("        subtitle.next_to(title, DOWN, buff=0.5)\n\n")
	b.WriteString("        self.play(Write(title))\n")
	b.WriteString("        self.play(FadeIn(subtitle))\n")
	b.WriteString("        self.wait(2)\n")
	b.WriteString(defaultContent)
	b.WriteString("\n")
	fmt.Fprintf(&b, "        thanks = Text(\"Thanks for watching\", font_size=36, color=%q)\n", colors.Primary)
	b.WriteString("        self.play(FadeOut(title), FadeOut(subtitle))\n")
	b.WriteString("        self.play(Write(thanks))\n")
	b.WriteString("        self.wait(2)\n")
	return b.String()
}
