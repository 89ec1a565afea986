package htmltext

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain text untouched", "hello world", "hello world"},
		{"inline tags stripped", "say <b>hello</b> to <i>everyone</i>", "say hello to everyone"},
		{"entities decoded", "a &lt;b&gt; &quot;c&quot; &amp;&nbsp;d", `a <b> "c" & d`},
		{"block tags break lines", "<p>one</p><p>two</p>", "one\ntwo"},
		{"br breaks lines", "one<br>two<br/>three", "one\ntwo\nthree"},
		{"headings break lines", "<h1>title</h1>body", "title\nbody"},
		{"emoji become shortcodes", `before <img src="/e.png" data-emoji="thumbs-up" class="emoji"> after`, "before :thumbs-up: after"},
		{"newline runs collapsed", "<p>a</p><div></div><div></div><p>b</p>", "a\n\nb"},
		{"surrounding space trimmed", "  <p> padded </p>  ", "padded"},
		{"code snippet", "<pre><code>x := 1\ny := 2</code></pre>", "x := 1\ny := 2"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Normalize(tc.in); got != tc.want {
				t.Fatalf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
