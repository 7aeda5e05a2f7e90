package adapter

// SampleTable is the demonstration table seeded into every store on first connect.
const SampleTable = "sample_data"

// SampleInsert seeds SampleTable. It is valid in every supported dialect.
const SampleInsert = `INSERT INTO sample_data (name, value, category) VALUES
	('Item 1', 100, 'A'),
	('Item 2', 200, 'B'),
	('Item 3', 150, 'A'),
	('Item 4', 300, 'C'),
	('Item 5', 250, 'B')`

// SampleRowCount is the number of rows SampleInsert adds.
const SampleRowCount = 5
