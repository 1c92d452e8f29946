package statsite_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/okian/pugbot/internal/adapters/statsite"
	"github.com/okian/pugbot/internal/domain/rating"
	. "github.com/smartystreets/goconvey/convey"
)

const profilePage = `<html><body>
<div class="column"><article>
<table><tr><th>Player</th><td>hellhound</td></tr></table>
<table>
  <tr><td>Games Played</td><td>212</td></tr>
  <tr><td>K/D/A</td><td>1.4 / 0.9 / 2.2</td></tr>
  <tr><td>ELO  Score:</td><td> 1,532 </td></tr>
</table>
</article></div>
</body></html>`

const singleCellPage = `<html><body><table>
<tr><td>Wins: 40</td></tr>
<tr><td>ELO Score: 1288</td></tr>
</table></body></html>`

const textOnlyPage = `<html><body><div>Season summary. ELO Score 1,104 after 10 games.</div></body></html>`

const unratedPage = `<html><body><table><tr><td>Games Played</td><td>2</td></tr></table></body></html>`

const notFoundPage = `<html><body><h1>Player not found</h1></body></html>`

const emptyPage = `<html><body><p>Loading...</p></body></html>`

func TestParse(t *testing.T) {
	Convey("Given a rendered profile page", t, func() {
		p, err := statsite.Parse(profilePage)

		Convey("Then the ELO row is found despite formatting", func() {
			So(err, ShouldBeNil)
			So(p.HasRating, ShouldBeTrue)
			So(p.Rating, ShouldEqual, 1532)
		})

		Convey("Then other rows are kept as stats", func() {
			So(p.Stats, ShouldContain, rating.Stat{Label: "Games Played", Value: "212"})
			So(p.Stats, ShouldContain, rating.Stat{Label: "K/D/A", Value: "1.4 / 0.9 / 2.2"})
		})
	})

	Convey("Given rows with label and value in one cell", t, func() {
		p, err := statsite.Parse(singleCellPage)
		So(err, ShouldBeNil)
		So(p.Rating, ShouldEqual, 1288)
		So(p.Stats[0], ShouldResemble, rating.Stat{Label: "Wins", Value: "40"})
	})

	Convey("Given the score only in running text", t, func() {
		p, err := statsite.Parse(textOnlyPage)
		So(err, ShouldBeNil)
		So(p.HasRating, ShouldBeTrue)
		So(p.Rating, ShouldEqual, 1104)
	})

	Convey("Given a page with stats but no score", t, func() {
		p, err := statsite.Parse(unratedPage)
		So(err, ShouldBeNil)
		So(p.HasRating, ShouldBeFalse)
		So(p.Stats, ShouldHaveLength, 1)
	})

	Convey("Given a not found page", t, func() {
		_, err := statsite.Parse(notFoundPage)
		So(err, ShouldEqual, statsite.ErrPlayerNotFound)
		So(errors.Is(err, rating.ErrNoProfile), ShouldBeTrue)
	})

	Convey("Given a page with nothing recognisable", t, func() {
		_, err := statsite.Parse(emptyPage)
		So(errors.Is(err, statsite.ErrExternalParse), ShouldBeTrue)
		So(errors.Is(err, rating.ErrNoProfile), ShouldBeTrue)
	})
}

func TestHTTPFetcher(t *testing.T) {
	Convey("Given a stats server", t, func() {
		var gotUA string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotUA = r.Header.Get("User-Agent")
			switch r.URL.Path {
			case "/player/hellhound":
				_, _ = w.Write([]byte(profilePage))
			case "/player/broken":
				w.WriteHeader(http.StatusBadGateway)
			default:
				w.WriteHeader(http.StatusNotFound)
			}
		}))
		defer srv.Close()

		f := statsite.NewHTTPFetcher(statsite.WithHTTPClient(srv.Client()), statsite.WithUserAgent("test-agent"))
		src := statsite.NewSource(srv.URL+"/", f)
		ctx := context.Background()

		Convey("When the player exists", func() {
			p, err := src.Lookup(ctx, "hellhound")

			Convey("Then the profile is parsed with its address", func() {
				So(err, ShouldBeNil)
				So(p.Rating, ShouldEqual, 1532)
				So(p.Name, ShouldEqual, "hellhound")
				So(p.URL, ShouldEqual, srv.URL+"/player/hellhound")
				So(gotUA, ShouldEqual, "test-agent")
			})
		})

		Convey("When the server answers 404", func() {
			_, err := src.Lookup(ctx, "nobody")
			So(errors.Is(err, statsite.ErrPlayerNotFound), ShouldBeTrue)
		})

		Convey("When the server fails", func() {
			_, err := src.Lookup(ctx, "broken")

			Convey("Then it is a retryable fetch error", func() {
				So(errors.Is(err, statsite.ErrExternalFetch), ShouldBeTrue)
				So(errors.Is(err, rating.ErrNoProfile), ShouldBeFalse)
			})
		})
	})
}

type stubFetcher struct {
	urls []string
	html string
	err  error
}

func (s *stubFetcher) Fetch(_ context.Context, url string) (string, error) {
	s.urls = append(s.urls, url)
	return s.html, s.err
}

func TestSource(t *testing.T) {
	Convey("Given a source over a stub fetcher", t, func() {
		stub := &stubFetcher{html: profilePage}
		src := statsite.NewSource("https://stats.example.com", stub)

		Convey("Then names are appended verbatim", func() {
			_, _ = src.Lookup(context.Background(), "Big%20Boss")
			So(stub.urls, ShouldResemble, []string{"https://stats.example.com/player/Big%20Boss"})
		})

		Convey("Then unknown fetch errors are classed as fetch failures", func() {
			stub.err = errors.New("tab crashed")
			_, err := src.Lookup(context.Background(), "x")
			So(errors.Is(err, statsite.ErrExternalFetch), ShouldBeTrue)
		})
	})
}
