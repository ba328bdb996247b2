package match

import "testing"

func TestParseScore(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		raw     string
		want    *Score
		wantErr bool
	}{
		{name: "played", raw: "2-1", want: &Score{Home: 2, Away: 1}},
		{name: "goalless", raw: "0-0", want: &Score{Home: 0, Away: 0}},
		{name: "padded", raw: " 3 - 2 ", want: &Score{Home: 3, Away: 2}},
		{name: "not played", raw: "", want: nil},
		{name: "missing separator", raw: "21", wantErr: true},
		{name: "non numeric", raw: "x-1", wantErr: true},
		{name: "negative goals", raw: "-1-2", wantErr: true},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseScore(tc.raw)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("ParseScore(%q) expected error", tc.raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseScore(%q) error: %v", tc.raw, err)
			}
			if !ScoresEqual(got, tc.want) {
				t.Fatalf("ParseScore(%q) got=%v want=%v", tc.raw, got, tc.want)
			}
		})
	}
}

func TestScoresEqual(t *testing.T) {
	t.Parallel()

	a := &Score{Home: 2, Away: 1}
	b := &Score{Home: 2, Away: 1}
	c := &Score{Home: 2, Away: 2}

	if !ScoresEqual(a, b) {
		t.Fatal("identical scores must compare equal")
	}
	if ScoresEqual(a, c) {
		t.Fatal("different scores must not compare equal")
	}
	if ScoresEqual(a, nil) {
		t.Fatal("score and nil must not compare equal")
	}
	if !ScoresEqual(nil, nil) {
		t.Fatal("nil scores must compare equal")
	}
}

func TestKey(t *testing.T) {
	t.Parallel()

	k := Key{Jornada: 7, HomeTeam: "barcelona", AwayTeam: "valencia"}
	if got, want := k.String(), "j07:barcelona:valencia"; got != want {
		t.Fatalf("Key.String got=%q want=%q", got, want)
	}
	if !k.Valid() {
		t.Fatal("complete key must be valid")
	}
	if (Key{Jornada: 0, HomeTeam: "a", AwayTeam: "b"}).Valid() {
		t.Fatal("jornada 0 must be invalid")
	}
	if (Key{Jornada: 1, HomeTeam: "", AwayTeam: "b"}).Valid() {
		t.Fatal("empty home team must be invalid")
	}
}

func TestMatch_Played(t *testing.T) {
	t.Parallel()

	m := Match{Jornada: 1, HomeTeam: "barcelona", AwayTeam: "valencia"}
	if m.Played() {
		t.Fatal("nil score means not played")
	}
	m.Score = &Score{Home: 1, Away: 1}
	if !m.Played() {
		t.Fatal("set score means played")
	}
}
