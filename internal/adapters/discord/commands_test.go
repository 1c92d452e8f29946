package discord

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestParseCommand(t *testing.T) {
	Convey("Given chat messages", t, func() {
		cases := []struct {
			content string
			cmd     command
			args    string
			ok      bool
		}{
			{"!q", cmdJoin, "", true},
			{"!queue", cmdJoin, "", true},
			{"!del", cmdLeave, "", true},
			{"!delete", cmdLeave, "", true},
			{"!rg", cmdCurrent, "", true},
			{"!current", cmdCurrent, "", true},
			{"!start", cmdStart, "", true},
			{"!start1", cmdStart, "", true},
			{"!add <@1> <@2>", cmdAdd, "<@1> <@2>", true},
			{"!add", cmdAdd, "", true},
			{"!remove 123", cmdRemove, "123", true},
			{"!swap <@1> <@2>", cmdSwap, "<@1> <@2>", true},
			{"!stats", cmdStats, "", true},
			{"!Q", "", "", false},
			{"!q now", "", "", false},
			{"!addx <@1>", "", "", false},
			{"hello !q", "", "", false},
			{"", "", "", false},
		}

		Convey("Then each one maps to the expected command", func() {
			for _, c := range cases {
				cmd, args, ok := parseCommand(c.content)
				So(ok, ShouldEqual, c.ok)
				So(cmd, ShouldEqual, c.cmd)
				So(args, ShouldEqual, c.args)
			}
		})
	})
}

func TestParseReferences(t *testing.T) {
	Convey("Given mixed argument text", t, func() {
		refs := parseReferences("<@111> <@!222>  333 bob <#444> <@111>")

		Convey("Then mentions and raw ids are returned in order without repeats", func() {
			So(refs, ShouldResemble, []string{"111", "222", "333"})
		})
	})

	Convey("Given no references", t, func() {
		So(parseReferences("nobody here"), ShouldBeEmpty)
	})
}
