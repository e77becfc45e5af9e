package receipt

import (
	"fmt"
	"html"
	"strings"
)

// Thermal receipt width in characters (58mm paper, Font A).
const paperWidth = 32

// sanitizeForThermal strips emoji and other extended Unicode that
// thermal printers cannot render, keeping Latin text (accents included)
// and currency signs. The HTML and plain-text targets deliberately do
// NOT apply this pass: preview output preserves the original text.
func sanitizeForThermal(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == '\n':
			b.WriteRune(r)
		case r >= 0x20 && r <= 0x7E:
			b.WriteRune(r)
		case r >= 0xA0 && r <= 0x24F: // Latin-1 supplement + Latin extended
			b.WriteRune(r)
		case r >= 0x20A0 && r <= 0x20CF: // currency symbols
			b.WriteRune(r)
		}
	}
	return b.String()
}

// padLine right-aligns price against text within the paper width.
func padLine(left, right string, width int) string {
	gap := width - len([]rune(left)) - len([]rune(right))
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

func centered(s string, width int) string {
	pad := (width - len([]rune(s))) / 2
	if pad < 0 {
		pad = 0
	}
	return strings.Repeat(" ", pad) + s
}

// RenderText renders the standard printable template: the preview shown
// on screen and the payload for transports that take plain text.
func RenderText(d Document) string {
	var b strings.Builder

	b.WriteString(centered(d.Restaurant.Name, paperWidth) + "\n")
	if d.Restaurant.Address != "" {
		b.WriteString(centered(d.Restaurant.Address, paperWidth) + "\n")
	}
	if d.Restaurant.Phone != "" {
		b.WriteString(centered(d.Restaurant.Phone, paperWidth) + "\n")
	}
	b.WriteString(strings.Repeat("-", paperWidth) + "\n")
	b.WriteString(fmt.Sprintf("%s %s\n", d.Labels.Order, d.Meta.OrderNumber))
	b.WriteString(d.OrderTypeLabel() + "\n")
	if !d.Meta.PlacedAt.IsZero() {
		b.WriteString(d.Meta.PlacedAt.Format("02/01/2006 15:04") + "\n")
	}
	b.WriteString(strings.Repeat("-", paperWidth) + "\n")

	for _, line := range d.Lines {
		b.WriteString(padLine(
			fmt.Sprintf("%dx %s", line.Quantity, line.Name),
			d.money(line.UnitPrice),
			paperWidth,
		) + "\n")
		for _, e := range line.Extras {
			if e.Amount.IsZero() {
				b.WriteString("  " + extraLabel(e) + "\n")
			} else {
				b.WriteString(padLine("  "+extraLabel(e), d.money(e.Amount), paperWidth) + "\n")
			}
		}
		if line.Instructions != "" {
			b.WriteString(fmt.Sprintf("  \"%s\"\n", line.Instructions))
		}
	}

	b.WriteString(strings.Repeat("-", paperWidth) + "\n")
	b.WriteString(padLine(d.Labels.Subtotal, d.money(d.Subtotal), paperWidth) + "\n")
	b.WriteString(padLine(
		fmt.Sprintf("%s (%s%%)", d.Labels.VAT, d.Restaurant.TaxRate.String()),
		d.money(d.Tax), paperWidth) + "\n")
	b.WriteString(padLine(d.Labels.Total, d.money(d.Total), paperWidth) + "\n")
	b.WriteString(strings.Repeat("-", paperWidth) + "\n")
	b.WriteString(centered(d.Labels.ThankYou, paperWidth) + "\n")

	return b.String()
}

// ESC/POS control sequences.
const (
	escInit      = "\x1b@"
	escAlignLeft = "\x1ba\x00"
	escAlignMid  = "\x1ba\x01"
	escBoldOn    = "\x1bE\x01"
	escBoldOff   = "\x1bE\x00"
	escDoubleOn  = "\x1d!\x11"
	escDoubleOff = "\x1d!\x00"
	escFeedCut   = "\x1dV\x42\x00"
)

// RenderESCPOS renders the raw byte stream for thermal printers
// (PrintNode raw jobs and the QZ Tray bridge). Text goes through the
// thermal sanitizer; totals and line ordering are identical to the other
// renderers because all three read the same document.
func RenderESCPOS(d Document) []byte {
	var b strings.Builder

	b.WriteString(escInit)
	b.WriteString(escAlignMid)
	b.WriteString(escDoubleOn)
	b.WriteString(sanitizeForThermal(d.Restaurant.Name) + "\n")
	b.WriteString(escDoubleOff)
	if d.Restaurant.Address != "" {
		b.WriteString(sanitizeForThermal(d.Restaurant.Address) + "\n")
	}
	if d.Restaurant.Phone != "" {
		b.WriteString(sanitizeForThermal(d.Restaurant.Phone) + "\n")
	}
	b.WriteString(escAlignLeft)
	b.WriteString(strings.Repeat("-", paperWidth) + "\n")
	b.WriteString(escBoldOn)
	b.WriteString(sanitizeForThermal(fmt.Sprintf("%s %s", d.Labels.Order, d.Meta.OrderNumber)) + "\n")
	b.WriteString(escBoldOff)
	b.WriteString(sanitizeForThermal(d.OrderTypeLabel()) + "\n")
	if !d.Meta.PlacedAt.IsZero() {
		b.WriteString(d.Meta.PlacedAt.Format("02/01/2006 15:04") + "\n")
	}
	b.WriteString(strings.Repeat("-", paperWidth) + "\n")

	for _, line := range d.Lines {
		b.WriteString(sanitizeForThermal(padLine(
			fmt.Sprintf("%dx %s", line.Quantity, line.Name),
			d.money(line.UnitPrice),
			paperWidth,
		)) + "\n")
		for _, e := range line.Extras {
			if e.Amount.IsZero() {
				b.WriteString(sanitizeForThermal("  "+extraLabel(e)) + "\n")
			} else {
				b.WriteString(sanitizeForThermal(padLine("  "+extraLabel(e), d.money(e.Amount), paperWidth)) + "\n")
			}
		}
		if line.Instructions != "" {
			b.WriteString(sanitizeForThermal(fmt.Sprintf("  \"%s\"", line.Instructions)) + "\n")
		}
	}

	b.WriteString(strings.Repeat("-", paperWidth) + "\n")
	b.WriteString(sanitizeForThermal(padLine(d.Labels.Subtotal, d.money(d.Subtotal), paperWidth)) + "\n")
	b.WriteString(sanitizeForThermal(padLine(
		fmt.Sprintf("%s (%s%%)", d.Labels.VAT, d.Restaurant.TaxRate.String()),
		d.money(d.Tax), paperWidth)) + "\n")
	b.WriteString(escBoldOn)
	b.WriteString(sanitizeForThermal(padLine(d.Labels.Total, d.money(d.Total), paperWidth)) + "\n")
	b.WriteString(escBoldOff)
	b.WriteString(escAlignMid)
	b.WriteString(sanitizeForThermal(d.Labels.ThankYou) + "\n")
	b.WriteString("\n\n")
	b.WriteString(escFeedCut)

	return []byte(b.String())
}

// RenderHTML renders the browser-print target. Emoji and extended
// Unicode are preserved here; only the thermal path strips them.
func RenderHTML(d Document) string {
	var b strings.Builder

	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	b.WriteString("<style>body{font-family:monospace;width:280px;margin:0 auto}" +
		".center{text-align:center}.row{display:flex;justify-content:space-between}" +
		".extra{padding-left:1em}.note{padding-left:1em;font-style:italic}" +
		"hr{border:none;border-top:1px dashed #000}</style>\n</head>\n<body>\n")

	b.WriteString(fmt.Sprintf("<h2 class=\"center\">%s</h2>\n", html.EscapeString(d.Restaurant.Name)))
	if d.Restaurant.Address != "" {
		b.WriteString(fmt.Sprintf("<p class=\"center\">%s</p>\n", html.EscapeString(d.Restaurant.Address)))
	}
	if d.Restaurant.Phone != "" {
		b.WriteString(fmt.Sprintf("<p class=\"center\">%s</p>\n", html.EscapeString(d.Restaurant.Phone)))
	}
	b.WriteString("<hr>\n")
	b.WriteString(fmt.Sprintf("<p><strong>%s %s</strong><br>%s",
		html.EscapeString(d.Labels.Order),
		html.EscapeString(d.Meta.OrderNumber),
		html.EscapeString(d.OrderTypeLabel())))
	if !d.Meta.PlacedAt.IsZero() {
		b.WriteString("<br>" + d.Meta.PlacedAt.Format("02/01/2006 15:04"))
	}
	b.WriteString("</p>\n<hr>\n")

	for _, line := range d.Lines {
		b.WriteString(fmt.Sprintf("<div class=\"row\"><span>%dx %s</span><span>%s</span></div>\n",
			line.Quantity, html.EscapeString(line.Name), d.money(line.UnitPrice)))
		for _, e := range line.Extras {
			if e.Amount.IsZero() {
				b.WriteString(fmt.Sprintf("<div class=\"extra\">%s</div>\n", html.EscapeString(extraLabel(e))))
			} else {
				b.WriteString(fmt.Sprintf("<div class=\"row extra\"><span>%s</span><span>%s</span></div>\n",
					html.EscapeString(extraLabel(e)), d.money(e.Amount)))
			}
		}
		if line.Instructions != "" {
			b.WriteString(fmt.Sprintf("<div class=\"note\">&quot;%s&quot;</div>\n", html.EscapeString(line.Instructions)))
		}
	}

	b.WriteString("<hr>\n")
	b.WriteString(fmt.Sprintf("<div class=\"row\"><span>%s</span><span>%s</span></div>\n",
		html.EscapeString(d.Labels.Subtotal), d.money(d.Subtotal)))
	b.WriteString(fmt.Sprintf("<div class=\"row\"><span>%s (%s%%)</span><span>%s</span></div>\n",
		html.EscapeString(d.Labels.VAT), d.Restaurant.TaxRate.String(), d.money(d.Tax)))
	b.WriteString(fmt.Sprintf("<div class=\"row\"><strong>%s</strong><strong>%s</strong></div>\n",
		html.EscapeString(d.Labels.Total), d.money(d.Total)))
	b.WriteString("<hr>\n")
	b.WriteString(fmt.Sprintf("<p class=\"center\">%s</p>\n", html.EscapeString(d.Labels.ThankYou)))
	b.WriteString("</body>\n</html>\n")

	return b.String()
}
