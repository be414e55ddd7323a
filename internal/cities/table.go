package cities

var defaultCities = []City{
	{ID: "asheville-nc", Name: "Asheville", Region: "NC", Lat: 35.5951, Lng: -82.5515},
	{ID: "atlanta-ga", Name: "Atlanta", Region: "GA", Lat: 33.7490, Lng: -84.3880},
	{ID: "charleston-sc", Name: "Charleston", Region: "SC", Lat: 32.7765, Lng: -79.9311},
	{ID: "charlotte-nc", Name: "Charlotte", Region: "NC", Lat: 35.2271, Lng: -80.8431},
	{ID: "columbia-sc", Name: "Columbia", Region: "SC", Lat: 34.0007, Lng: -81.0348},
	{ID: "greenville-sc", Name: "Greenville", Region: "SC", Lat: 34.8526, Lng: -82.3940},
	{ID: "knoxville-tn", Name: "Knoxville", Region: "TN", Lat: 35.9606, Lng: -83.9207},
	{ID: "nashville-tn", Name: "Nashville", Region: "TN", Lat: 36.1627, Lng: -86.7816},
	{ID: "raleigh-nc", Name: "Raleigh", Region: "NC", Lat: 35.7796, Lng: -78.6382},
	{ID: "richmond-va", Name: "Richmond", Region: "VA", Lat: 37.5407, Lng: -77.4360},
	{ID: "savannah-ga", Name: "Savannah", Region: "GA", Lat: 32.0809, Lng: -81.0912},
	{ID: "washington-dc", Name: "Washington", Region: "DC", Lat: 38.9072, Lng: -77.0369},
}

// Road miles. The table is intentionally incomplete; see FallbackDistanceMiles.
var defaultEdges = []Edge{
	{From: "charlotte-nc", To: "atlanta-ga", Miles: 245},
	{From: "charlotte-nc", To: "raleigh-nc", Miles: 170},
	{From: "charlotte-nc", To: "asheville-nc", Miles: 130},
	{From: "charlotte-nc", To: "greenville-sc", Miles: 100},
	{From: "charlotte-nc", To: "columbia-sc", Miles: 93},
	{From: "charlotte-nc", To: "charleston-sc", Miles: 210},
	{From: "atlanta-ga", To: "greenville-sc", Miles: 145},
	{From: "atlanta-ga", To: "savannah-ga", Miles: 250},
	{From: "atlanta-ga", To: "nashville-tn", Miles: 250},
	{From: "atlanta-ga", To: "knoxville-tn", Miles: 215},
	{From: "asheville-nc", To: "knoxville-tn", Miles: 115},
	{From: "asheville-nc", To: "greenville-sc", Miles: 62},
	{From: "knoxville-tn", To: "nashville-tn", Miles: 180},
	{From: "columbia-sc", To: "charleston-sc", Miles: 115},
	{From: "columbia-sc", To: "greenville-sc", Miles: 100},
	{From: "charleston-sc", To: "savannah-ga", Miles: 108},
	{From: "raleigh-nc", To: "richmond-va", Miles: 170},
	{From: "richmond-va", To: "washington-dc", Miles: 108},
}
