package apifootball

import "encoding/json"

// envelope is the common API-Football v3 response wrapper.
type envelope struct {
	Response json.RawMessage `json:"response"`
	Paging   struct {
		Current int `json:"current"`
		Total   int `json:"total"`
	} `json:"paging"`
}

type teamRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type fixtureItem struct {
	Fixture struct {
		ID     int64  `json:"id"`
		Date   string `json:"date"`
		Status struct {
			Short   string `json:"short"`
			Elapsed *int   `json:"elapsed"`
		} `json:"status"`
	} `json:"fixture"`
	League struct {
		ID      int64  `json:"id"`
		Season  int    `json:"season"`
		Name    string `json:"name"`
		Country string `json:"country"`
	} `json:"league"`
	Teams struct {
		Home teamRef `json:"home"`
		Away teamRef `json:"away"`
	} `json:"teams"`
	Goals struct {
		Home *int `json:"home"`
		Away *int `json:"away"`
	} `json:"goals"`
}

type betValue struct {
	Value string `json:"value"`
	Odd   string `json:"odd"`
}

type betBlock struct {
	Name   string     `json:"name"`
	Values []betValue `json:"values"`
}

type oddsItem struct {
	Fixture struct {
		ID   int64  `json:"id"`
		Date string `json:"date"`
	} `json:"fixture"`
	League struct {
		Name    string `json:"name"`
		Country string `json:"country"`
	} `json:"league"`
	Bookmakers []struct {
		ID   int        `json:"id"`
		Bets []betBlock `json:"bets"`
	} `json:"bookmakers"`
}

type eventItem struct {
	Type   string `json:"type"`
	Detail string `json:"detail"`
	Team   struct {
		ID int64 `json:"id"`
	} `json:"team"`
}
