package service

import "testing"

func TestConvertToPercentage(t *testing.T) {
	svc := NewScoreConverterService()
	cases := []struct {
		raw, max float64
		want     float64
		wantErr  bool
	}{
		{raw: 0, max: 10, want: 0},
		{raw: 10, max: 10, want: 100},
		{raw: 3, max: 4, want: 75},
		{raw: 8.5, max: 9, want: 94.4},
		{raw: 1, max: 3, want: 33.3},
		{raw: 2, max: 3, want: 66.7},
		{raw: 1, max: 0, wantErr: true},
		{raw: -1, max: 10, wantErr: true},
		{raw: 11, max: 10, wantErr: true},
	}
	for _, tc := range cases {
		got, err := svc.ConvertToPercentage(tc.raw, tc.max)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("%v/%v: expected an error, got %v", tc.raw, tc.max, got)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("%v/%v: expected %v, got %v (err %v)", tc.raw, tc.max, tc.want, got, err)
		}
	}
}
