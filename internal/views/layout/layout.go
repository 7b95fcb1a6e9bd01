package layout

// Variant selects the stylesheet applied to a document.
type Variant int

const (
	// Screen is the interactive layout used by the auth forms.
	Screen Variant = iota
	// Print is a plain, paper friendly layout.
	Print
)

const screenStyles = `body{font-family:system-ui,sans-serif;background:#f7f5ef;color:#2f2a24;margin:0}
main{max-width:28rem;margin:4rem auto;padding:2rem;background:#fff;border-radius:.75rem;box-shadow:0 1px 4px rgba(0,0,0,.08)}
label{display:block;margin-top:1rem;font-size:.9rem}
input,select{width:100%;padding:.5rem;margin-top:.25rem;box-sizing:border-box}
button{margin-top:1.5rem;padding:.6rem 1.2rem}
.message{color:#9b2c2c}`

const printStyles = `body{font-family:Georgia,serif;color:#111;margin:2rem}
table{width:100%;border-collapse:collapse;margin:1rem 0}
th,td{border:1px solid #999;padding:.35rem .5rem;text-align:left}
h2{margin-top:1.5rem;text-transform:capitalize}
.chart-meta{list-style:none;padding:0}
@media print{.no-print{display:none}}`

func styles(variant Variant) string {
	if variant == Print {
		return printStyles
	}
	return screenStyles
}
