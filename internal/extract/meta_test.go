package extract

import "testing"

func TestDiscoverTitle(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "og title",
			html: `<meta property="og:title" content="My &amp; Video"><title>Other</title>`,
			want: "My & Video",
		},
		{
			name: "og title content first single quotes",
			html: `<meta content='Phim hay' property='og:title'>`,
			want: "Phim hay",
		},
		{
			name: "empty og title falls back to title tag",
			html: `<meta property="og:title" content="  "><title>
  Tom &amp; Jerry &eacute;
</title>`,
			want: "Tom & Jerry &eacute;",
		},
		{
			name: "h1 with nested markup",
			html: `<body><h1 class="t">  <span>Hello</span> world&nbsp;</h1></body>`,
			want: "Hello world",
		},
		{
			name: "unquoted og title",
			html: `<meta property=og:title content="Bare key">`,
			want: "Bare key",
		},
		{
			name: "og title without content does not borrow from next tag",
			html: `<meta property=og:title><meta name="keywords" content="spam, words">`,
			want: "",
		},
		{
			name: "self-closing og title without content falls back",
			html: `<meta property=og:title/><meta name="keywords" content="spam"><title>Real</title>`,
			want: "Real",
		},
		{
			name: "twitter title is not og title",
			html: `<meta name="twitter:title" content="nope">`,
			want: "",
		},
		{
			name: "nothing",
			html: `<p>text</p>`,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DiscoverTitle(tt.html); got != tt.want {
				t.Errorf("DiscoverTitle() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDiscoverDescription(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "og description wins",
			html: `<meta name="description" content="plain"><meta property="og:description" content="&lt;b&gt;rich&lt;/b&gt;">`,
			want: "<b>rich</b>",
		},
		{
			name: "name description",
			html: `<meta name="description" content="It&#39;s plain">`,
			want: "It's plain",
		},
		{
			name: "similar key is ignored",
			html: `<meta name="description-extra" content="no">`,
			want: "",
		},
		{
			name: "description without content does not borrow from next tag",
			html: `<meta name=description><meta name="robots" content="noindex">`,
			want: "",
		},
		{
			name: "missing",
			html: `<title>t</title>`,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DiscoverDescription(tt.html); got != tt.want {
				t.Errorf("DiscoverDescription() = %q, want %q", got, tt.want)
			}
		})
	}
}
