package media

import "testing"

func TestFromExtension(t *testing.T) {
	cases := []struct {
		ext  string
		want Type
	}{
		{"mp4", TypeVideo},
		{"MKV", TypeVideo},
		{"rmvb", TypeVideo},
		{".webm", TypeVideo},
		{"jpg", TypeImage},
		{"JPEG", TypeImage},
		{"tif", TypeImage},
		{"mp3", TypeAudio},
		{"FLAC", TypeAudio},
		{"m4a", TypeAudio},
		{"txt", TypeUnknown},
		{"exe", TypeUnknown},
		{"", TypeUnknown},
	}
	for _, tc := range cases {
		if got := FromExtension(tc.ext); got != tc.want {
			t.Errorf("FromExtension(%q) = %q, want %q", tc.ext, got, tc.want)
		}
	}
}

func TestTypeCode(t *testing.T) {
	cases := []struct {
		typ  Type
		want string
	}{
		{TypeVideo, "v"},
		{TypeImage, "i"},
		{TypeAudio, "a"},
		{TypeUnknown, "u"},
	}
	for _, tc := range cases {
		if got := tc.typ.Code(); got != tc.want {
			t.Errorf("%s.Code() = %q, want %q", tc.typ, got, tc.want)
		}
	}
}
