package netmon

import "testing"

func TestOnline_DefaultsOptimistic(t *testing.T) {
	m := New("", 0, 0, nil)
	if !m.Online() {
		t.Fatal("monitor should start online until a probe says otherwise")
	}
}

func TestSetOnline_TransitionFiresCallback(t *testing.T) {
	m := New("", 0, 0, nil)
	fired := 0
	m.OnOnline(func() { fired++ })

	m.SetOnline(false)
	if m.Online() {
		t.Fatal("expected offline")
	}
	if fired != 0 {
		t.Fatal("going offline must not fire the online callback")
	}

	m.SetOnline(true)
	if fired != 1 {
		t.Fatalf("offline→online should fire once, fired %d times", fired)
	}

	// Already online: no transition, no callback.
	m.SetOnline(true)
	if fired != 1 {
		t.Fatalf("online→online should not fire, fired %d times", fired)
	}
}

func TestProbeAddr(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"https://activity.learn.example.com/v1/progress", "activity.learn.example.com:443"},
		{"http://localhost:8081/v1/progress", "localhost:8081"},
		{"http://activity.internal/v1/progress", "activity.internal:80"},
		{"::not a url::", ""},
	}
	for _, c := range cases {
		if got := ProbeAddr(c.in); got != c.want {
			t.Fatalf("ProbeAddr(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
