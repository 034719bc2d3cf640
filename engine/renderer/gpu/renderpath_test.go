package gpu

import "testing"

func TestParseRenderPath(t *testing.T) {
	tests := []struct {
		in      string
		want    RenderPath
		wantErr bool
	}{
		{"", DynamicRendering, false},
		{"dynamic", DynamicRendering, false},
		{" Dynamic_Rendering ", DynamicRendering, false},
		{"renderpass", RenderPassFramebuffer, false},
		{"framebuffer", RenderPassFramebuffer, false},
		{"raytraced", DynamicRendering, true},
	}
	for _, tt := range tests {
		got, err := ParseRenderPath(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseRenderPath(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseRenderPath(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestRenderPathText(t *testing.T) {
	for _, p := range []RenderPath{DynamicRendering, RenderPassFramebuffer} {
		text, err := p.MarshalText()
		if err != nil {
			t.Fatal(err)
		}
		var back RenderPath
		if err := back.UnmarshalText(text); err != nil || back != p {
			t.Errorf("round trip of %s = %s, %v", p, back, err)
		}
	}
	if !RenderPassFramebuffer.UsesFramebuffers() || DynamicRendering.UsesFramebuffers() {
		t.Errorf("UsesFramebuffers() wrong")
	}
}
