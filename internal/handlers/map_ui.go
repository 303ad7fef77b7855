package handlers

import (
	"html/template"
	"net/http"
)

// MapUI serves the interactive map page. The page holds the four filter
// controls; every change re-queries /api/occurrences and redraws the point
// layer, so all filter state lives client-side and each request carries a
// complete criteria set.
func MapUI(w http.ResponseWriter, r *http.Request) {
	tmpl := `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>Occurrence Atlas</title>
    <link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css">
    <style>
        body { margin: 0; font-family: sans-serif; display: flex; height: 100vh; }
        #sidebar { width: 280px; padding: 16px; overflow-y: auto; background: #f4f4f4; }
        #map { flex: 1; }
        fieldset { margin-bottom: 12px; border: 1px solid #ccc; }
        label { display: block; font-size: 14px; }
        .range input { width: 70px; }
        #count { font-weight: bold; }
    </style>
</head>
<body>
    <div id="sidebar">
        <h2>Occurrence Atlas</h2>
        <p><span id="count">0</span> records shown</p>
        <fieldset id="species-box"><legend>Species</legend></fieldset>
        <fieldset class="range"><legend>Years</legend>
            <input type="number" id="year-min"> &ndash; <input type="number" id="year-max">
        </fieldset>
        <fieldset id="month-box"><legend>Months</legend></fieldset>
        <fieldset class="range"><legend>Elevation (m)</legend>
            <input type="number" id="elev-min"> &ndash; <input type="number" id="elev-max">
        </fieldset>
    </div>
    <div id="map"></div>
    <script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
    <script>
        const MONTHS = ["Jan","Feb","Mar","Apr","May","Jun","Jul","Aug","Sep","Oct","Nov","Dec"];
        const map = L.map('map').setView([39.0, -105.5], 7);
        L.tileLayer('https://tile.openstreetmap.org/{z}/{x}/{y}.png', {
            attribution: '&copy; OpenStreetMap contributors'
        }).addTo(map);
        let layer = null;

        function checked(boxId) {
            return Array.from(document.querySelectorAll('#' + boxId + ' input:checked'))
                .map(el => el.value);
        }

        function refresh() {
            const params = new URLSearchParams({
                format: 'geojson',
                species: checked('species-box').join(','),
                months: checked('month-box').join(','),
                year_min: document.getElementById('year-min').value,
                year_max: document.getElementById('year-max').value,
                elev_min: document.getElementById('elev-min').value,
                elev_max: document.getElementById('elev-max').value
            });
            fetch('/api/occurrences?' + params).then(r => r.json()).then(fc => {
                if (layer) map.removeLayer(layer);
                layer = L.geoJSON(fc, {
                    pointToLayer: (f, latlng) => L.circleMarker(latlng, { radius: 5 }),
                    onEachFeature: (f, l) => l.bindPopup(
                        f.properties.species + '<br>' +
                        f.properties.month + ' ' + f.properties.year + '<br>' +
                        (f.properties.elevation_meters !== undefined
                            ? f.properties.elevation_meters.toFixed(0) + ' m' : 'no elevation')
                    )
                }).addTo(map);
                document.getElementById('count').textContent = fc.features.length;
            });
        }

        function addCheckbox(boxId, value, label) {
            const el = document.createElement('label');
            el.innerHTML = '<input type="checkbox" checked value="' + value + '"> ' + label;
            el.querySelector('input').addEventListener('change', refresh);
            document.getElementById(boxId).appendChild(el);
        }

        fetch('/api/species').then(r => r.json()).then(info => {
            info.species.forEach(s => addCheckbox('species-box', s.species, s.species + ' (' + s.count + ')'));
            MONTHS.forEach(m => addCheckbox('month-box', m, m));
            document.getElementById('year-min').value = info.year_min;
            document.getElementById('year-max').value = info.year_max;
            document.getElementById('elev-min').value = Math.floor(info.elevation_min);
            document.getElementById('elev-max').value = Math.ceil(info.elevation_max);
            ['year-min','year-max','elev-min','elev-max'].forEach(id =>
                document.getElementById(id).addEventListener('change', refresh));
            refresh();
        });
    </script>
</body>
</html>`

	t := template.Must(template.New("map").Parse(tmpl))
	w.Header().Set("Content-Type", "text/html")
	t.Execute(w, nil)
}
